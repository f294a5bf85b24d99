package toongod

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gabriel/manga-link-finder/internal/fetch"
	"github.com/gabriel/manga-link-finder/internal/searchutil"
	"github.com/gabriel/manga-link-finder/internal/sites"
	"github.com/gabriel/manga-link-finder/internal/sites/scrape"
	"github.com/gabriel/manga-link-finder/internal/verify"
)

const (
	Key  = "toongod"
	Name = "Toongod"

	defaultBaseURL = "https://www.toongod.org"
	defaultHost    = "toongod.org"
	webtoonPath    = "/webtoon"
)

// Known naming inconsistency on the site: the misspelled slug is the live one.
var slugCorrections = []struct {
	from string
	to   string
}{
	{from: "disciplining", to: "discipling"},
}

type Site struct {
	baseURL  string
	hosts    []string
	fetcher  fetch.Fetcher
	verifier sites.LinkVerifier
	logger   *slog.Logger
}

type directOutcome int

const (
	directMiss directOutcome = iota
	directFound
	// directFailed means the page could not be loaded; only this outcome
	// triggers the slug correction.
	directFailed
)

func NewSite(fetcher fetch.Fetcher, verifier sites.LinkVerifier, logger *slog.Logger) *Site {
	return NewSiteWithOptions(defaultBaseURL, nil, fetcher, verifier, logger)
}

func NewSiteWithOptions(baseURL string, hosts []string, fetcher fetch.Fetcher, verifier sites.LinkVerifier, logger *slog.Logger) *Site {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if len(hosts) == 0 {
		hosts = []string{defaultHost}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Site{baseURL: baseURL, hosts: hosts, fetcher: fetcher, verifier: verifier, logger: logger.With("site", Key)}
}

func (s *Site) Key() string {
	return Key
}

func (s *Site) Name() string {
	return Name
}

func (s *Site) Audience() string {
	return sites.AudienceAdult
}

// Policy treats a 403 on a webtoon page as the anti-bot wall in front of a
// page that exists.
func (s *Site) Policy() verify.Policy {
	return verify.Policy{SiteKey: Key, Hosts: s.hosts, PathPrefix: webtoonPath, TrustOn403: true}
}

func (s *Site) HealthCheck(ctx context.Context) error {
	res, err := s.fetcher.Get(ctx, s.baseURL+"/", nil)
	if err != nil {
		return err
	}
	defer res.Discard()

	if !res.OK() && res.StatusCode != http.StatusForbidden {
		return fmt.Errorf("unexpected status: %d", res.StatusCode)
	}
	return nil
}

func (s *Site) Resolve(ctx context.Context, title string) (string, bool) {
	slug, ok := searchutil.Slugify(title)
	if !ok {
		s.logger.Debug("skipping title without slug", "title", title)
		return "", false
	}

	link, outcome := s.resolveDirect(ctx, slug, title)
	if outcome == directFailed {
		if corrected, changed := correctSlug(slug); changed {
			s.logger.Debug("retrying with corrected slug", "slug", slug, "corrected", corrected)
			link, outcome = s.resolveDirect(ctx, corrected, title)
		}
	}
	if outcome == directFound {
		return link, true
	}

	search := scrape.Search{SiteKey: Key, PathMarker: webtoonPath + "/", Fetcher: s.fetcher, Verifier: s.verifier, Logger: s.logger}
	return search.Run(ctx, s.baseURL+"/?s="+url.QueryEscape(title), slug, title)
}

func (s *Site) resolveDirect(ctx context.Context, slug string, title string) (string, directOutcome) {
	link := s.baseURL + webtoonPath + "/" + slug + "/"

	res, err := s.fetcher.Get(ctx, link, nil)
	if err != nil {
		s.logger.Debug("direct url failed", "url", link, "error", err)
		return "", directFailed
	}
	_ = res.Discard()

	switch {
	case res.OK():
		if s.verifier.Verify(ctx, Key, link, title) {
			return link, directFound
		}
		return "", directMiss
	case res.StatusCode == http.StatusForbidden:
		s.logger.Debug("direct url blocked, assuming it exists", "url", link)
		return link, directFound
	default:
		s.logger.Debug("direct url rejected", "url", link, "status", res.StatusCode)
		return "", directFailed
	}
}

func correctSlug(slug string) (string, bool) {
	for _, correction := range slugCorrections {
		if strings.Contains(slug, correction.from) {
			return strings.Replace(slug, correction.from, correction.to, 1), true
		}
	}
	return slug, false
}
