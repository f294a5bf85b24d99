package omegascans

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gabriel/manga-link-finder/internal/fetch"
	"github.com/gabriel/manga-link-finder/internal/searchutil"
	"github.com/gabriel/manga-link-finder/internal/sites"
	"github.com/gabriel/manga-link-finder/internal/sites/scrape"
	"github.com/gabriel/manga-link-finder/internal/verify"
)

const (
	Key  = "omegascans"
	Name = "Omegascans"

	defaultBaseURL = "https://omegascans.org"
	defaultHost    = "omegascans.org"
)

type Site struct {
	baseURL  string
	hosts    []string
	fetcher  fetch.Fetcher
	verifier sites.LinkVerifier
	logger   *slog.Logger
}

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

// Policy trusts any 2xx from the site's hosts.
func (s *Site) Policy() verify.Policy {
	return verify.Policy{SiteKey: Key, Hosts: s.hosts, TrustOn2xx: true}
}

func (s *Site) HealthCheck(ctx context.Context) error {
	res, err := s.fetcher.Get(ctx, s.baseURL+"/", nil)
	if err != nil {
		return err
	}
	defer res.Discard()

	if !res.OK() {
		return fmt.Errorf("unexpected status: %d", res.StatusCode)
	}
	return nil
}

// Resolve tries the direct series URL first and falls back to the search page.
func (s *Site) Resolve(ctx context.Context, title string) (string, bool) {
	slug, ok := searchutil.Slugify(title)
	if !ok {
		s.logger.Debug("skipping title without slug", "title", title)
		return "", false
	}

	if link, ok := s.resolveDirect(ctx, slug, title); ok {
		return link, true
	}

	search := scrape.Search{SiteKey: Key, PathMarker: "/series/", Fetcher: s.fetcher, Verifier: s.verifier, Logger: s.logger}
	return search.Run(ctx, s.baseURL+"/?s="+url.QueryEscape(title), slug, title)
}

func (s *Site) resolveDirect(ctx context.Context, slug string, title string) (string, bool) {
	link := s.baseURL + "/series/" + slug

	res, err := s.fetcher.Get(ctx, link, nil)
	if err != nil {
		s.logger.Debug("direct url failed", "url", link, "error", err)
		return "", false
	}
	_ = res.Discard()

	if !res.OK() {
		s.logger.Debug("direct url rejected", "url", link, "status", res.StatusCode)
		return "", false
	}
	if !s.verifier.Verify(ctx, Key, link, title) {
		return "", false
	}
	return link, true
}
