// Package scrape implements the search-page fallback shared by the HTML
// sites: fetch a search page, collect anchors under a path marker, keep the
// ones that contain the title slug and return the first that verifies.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel/manga-link-finder/internal/fetch"
	"github.com/gabriel/manga-link-finder/internal/searchutil"
	"github.com/gabriel/manga-link-finder/internal/sites"
)

type Search struct {
	SiteKey string
	// PathMarker is the substring every result href carries, e.g. "/series/".
	PathMarker string

	Fetcher  fetch.Fetcher
	Verifier sites.LinkVerifier
	Logger *slog.Logger
}

type Anchor struct {
	URL  string
	Text string
}

// Run fetches searchURL and returns the first candidate that matches slug and
// passes verification.
func (s Search) Run(ctx context.Context, searchURL string, slug string, title string) (string, bool) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	anchors, err := s.fetchAnchors(ctx, searchURL)
	if err != nil {
		logger.Debug("scrape search failed", "site", s.SiteKey, "url", searchURL, "error", err)
		return "", false
	}

	for _, candidate := range MatchSlug(anchors, slug) {
		if err := ctx.Err(); err != nil {
			return "", false
		}
		if s.Verifier.Verify(ctx, s.SiteKey, candidate, title) {
			return candidate, true
		}
	}
	return "", false
}

func (s Search) fetchAnchors(ctx context.Context, searchURL string) ([]Anchor, error) {
	res, err := s.Fetcher.Get(ctx, searchURL, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	if !res.OK() {
		return nil, fmt.Errorf("unexpected status: %d", res.StatusCode)
	}

	body, err := res.Text()
	if err != nil {
		return nil, err
	}
	return Anchors(body, searchURL, s.PathMarker)
}

// Anchors lists the anchors whose href contains marker, resolved against
// pageURL and deduplicated in document order.
func Anchors(body string, pageURL string, marker string) ([]Anchor, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, _ := url.Parse(pageURL)
	seen := map[string]struct{}{}
	anchors := make([]Anchor, 0)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || !strings.Contains(href, marker) {
			return
		}

		absolute := href
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				absolute = base.ResolveReference(ref).String()
			}
		}
		if _, exists := seen[absolute]; exists {
			return
		}
		seen[absolute] = struct{}{}
		anchors = append(anchors, Anchor{URL: absolute, Text: strings.TrimSpace(sel.Text())})
	})

	return anchors, nil
}

// MatchSlug keeps the anchor URLs whose lower-cased link or slugified text
// contains slug.
func MatchSlug(anchors []Anchor, slug string) []string {
	if slug == "" {
		return nil
	}

	matches := make([]string, 0)
	for _, anchor := range anchors {
		if strings.Contains(strings.ToLower(anchor.URL), slug) {
			matches = append(matches, anchor.URL)
			continue
		}
		if textSlug, ok := searchutil.Slugify(anchor.Text); ok && strings.Contains(textSlug, slug) {
			matches = append(matches, anchor.URL)
		}
	}
	return matches
}
