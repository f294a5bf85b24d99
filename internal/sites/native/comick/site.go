package comick

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gabriel/manga-link-finder/internal/fetch"
	"github.com/gabriel/manga-link-finder/internal/sites"
	"github.com/gabriel/manga-link-finder/internal/verify"
)

const (
	Key  = "comick"
	Name = "Comick"

	defaultAPIBaseURL  = "https://api.comick.io"
	defaultSiteBaseURL = "https://comick.io"
	defaultHost        = "comick.io"
	comicPath          = "/comic"
)

type Site struct {
	apiBaseURL  string
	siteBaseURL string
	hosts       []string
	fetcher     fetch.Fetcher
	verifier    sites.LinkVerifier
	logger      *slog.Logger
}

func NewSite(fetcher fetch.Fetcher, verifier sites.LinkVerifier, logger *slog.Logger) *Site {
	return NewSiteWithOptions(defaultAPIBaseURL, defaultSiteBaseURL, nil, fetcher, verifier, logger)
}

func NewSiteWithOptions(apiBaseURL string, siteBaseURL string, hosts []string, fetcher fetch.Fetcher, verifier sites.LinkVerifier, logger *slog.Logger) *Site {
	apiBaseURL = strings.TrimRight(strings.TrimSpace(apiBaseURL), "/")
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	siteBaseURL = strings.TrimRight(strings.TrimSpace(siteBaseURL), "/")
	if siteBaseURL == "" {
		siteBaseURL = defaultSiteBaseURL
	}
	if len(hosts) == 0 {
		hosts = []string{defaultHost}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Site{
		apiBaseURL:  apiBaseURL,
		siteBaseURL: siteBaseURL,
		hosts:       hosts,
		fetcher:     fetcher,
		verifier:    verifier,
		logger:      logger.With("site", Key),
	}
}

func (s *Site) Key() string {
	return Key
}

func (s *Site) Name() string {
	return Name
}

func (s *Site) Audience() string {
	return sites.AudienceGeneral
}

func (s *Site) Policy() verify.Policy {
	return verify.Policy{SiteKey: Key, Hosts: s.hosts, PathPrefix: comicPath, TrustOn403: true}
}

func (s *Site) HealthCheck(ctx context.Context) error {
	res, err := s.fetcher.Get(ctx, s.searchURL("one piece"), fetch.JSONHeaders(s.siteBaseURL))
	if err != nil {
		return err
	}
	defer res.Discard()

	if !res.OK() {
		return fmt.Errorf("unexpected status: %d", res.StatusCode)
	}
	return nil
}

// Resolve asks the search API for the single best match and links to its
// comic page. The raw title is sent; the API does its own matching.
func (s *Site) Resolve(ctx context.Context, title string) (string, bool) {
	query := strings.TrimSpace(title)
	if query == "" {
		return "", false
	}

	endpoint := s.searchURL(query)
	res, err := s.fetcher.Get(ctx, endpoint, fetch.JSONHeaders(s.siteBaseURL))
	if err != nil {
		s.logger.Debug("search api failed", "url", endpoint, "error", err)
		return "", false
	}
	defer res.Close()

	if !res.OK() {
		s.logger.Debug("search api rejected", "url", endpoint, "status", res.StatusCode)
		return "", false
	}

	raw, err := res.Bytes()
	if err != nil {
		s.logger.Debug("search api body failed", "url", endpoint, "error", err)
		return "", false
	}

	match := decodeSearch(raw)
	if match.kind == noMatch {
		s.logger.Debug("search api returned no usable slug", "title", title)
		return "", false
	}

	link := s.siteBaseURL + comicPath + "/" + url.PathEscape(match.slug)
	if !s.verifier.Verify(ctx, Key, link, title) {
		return "", false
	}
	return link, true
}

func (s *Site) searchURL(title string) string {
	return s.apiBaseURL + "/v1.0/search/?page=1&limit=1&showall=false&q=" + url.QueryEscape(title) + "&t=false"
}

type matchKind int

const (
	noMatch matchKind = iota
	arrayResult
	objectResult
)

type searchMatch struct {
	kind matchKind
	slug string
}

type searchItem struct {
	Slug string `json:"slug"`
}

// decodeSearch accepts either a list whose first element has a slug or a
// single object with a slug. Anything else is noMatch.
func decodeSearch(raw []byte) searchMatch {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return searchMatch{kind: noMatch}
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil || len(items) == 0 {
			return searchMatch{kind: noMatch}
		}
		if slug, ok := slugOf(items[0]); ok {
			return searchMatch{kind: arrayResult, slug: slug}
		}
	case '{':
		if slug, ok := slugOf(trimmed); ok {
			return searchMatch{kind: objectResult, slug: slug}
		}
	}
	return searchMatch{kind: noMatch}
}

func slugOf(raw []byte) (string, bool) {
	var item searchItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return "", false
	}
	slug := strings.TrimSpace(item.Slug)
	return slug, slug != ""
}
