// Package featured lists popular series from partner sites for the home
// screen: the Omegascans ranking API and the AsuraScans series grid.
package featured

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel/manga-link-finder/internal/fetch"
	"golang.org/x/sync/errgroup"
)

const (
	defaultOmegascansAPIURL  = "https://api.omegascans.org"
	defaultOmegascansSiteURL = "https://omegascans.org"
	defaultAsurascansURL     = "https://asuracomic.net"
)

type Item struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Cover   string `json:"cover"`
	Summary string `json:"summary,omitempty"`
}

type Page struct {
	Items   []Item `json:"items"`
	Page    int    `json:"page"`
	HasMore bool   `json:"hasMore"`
}

type Options struct {
	OmegascansAPIURL  string
	OmegascansSiteURL string
	AsurascansURL     string
}

type Client struct {
	fetcher fetch.Fetcher
	opts    Options
	logger  *slog.Logger
}

func NewClient(fetcher fetch.Fetcher, opts Options, logger *slog.Logger) *Client {
	opts.OmegascansAPIURL = withDefault(opts.OmegascansAPIURL, defaultOmegascansAPIURL)
	opts.OmegascansSiteURL = withDefault(opts.OmegascansSiteURL, defaultOmegascansSiteURL)
	opts.AsurascansURL = withDefault(opts.AsurascansURL, defaultAsurascansURL)
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{fetcher: fetcher, opts: opts, logger: logger}
}

type Overview struct {
	Omegascans []Item `json:"omegascans"`
	Asurascans Page   `json:"asurascans"`
}

// Overview loads the first page of both listings concurrently. One failing
// listing does not hide the other; an error is returned only when both fail.
func (c *Client) Overview(ctx context.Context) (Overview, error) {
	var overview Overview
	var omegaErr, asuraErr error
	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		overview.Omegascans, omegaErr = c.Omegascans(groupCtx)
		return nil
	})
	g.Go(func() error {
		overview.Asurascans, asuraErr = c.Asurascans(groupCtx, 1)
		return nil
	})
	_ = g.Wait()

	if omegaErr != nil && asuraErr != nil {
		return Overview{}, fmt.Errorf("load featured listings: %w; %w", omegaErr, asuraErr)
	}
	if omegaErr != nil {
		c.logger.Warn("omegascans featured failed", "error", omegaErr)
		overview.Omegascans = []Item{}
	}
	if asuraErr != nil {
		c.logger.Warn("asurascans featured failed", "error", asuraErr)
		overview.Asurascans = Page{Items: []Item{}, Page: 1}
	}
	return overview, nil
}

func withDefault(value string, fallback string) string {
	value = strings.TrimRight(strings.TrimSpace(value), "/")
	if value == "" {
		return fallback
	}
	return value
}

func absoluteURL(baseURL string, raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "//") {
		return "https:" + trimmed
	}
	if strings.HasPrefix(trimmed, "/") {
		return baseURL + trimmed
	}
	return baseURL + "/" + trimmed
}

// plainText drops markup from an HTML fragment.
func plainText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(doc.Text())
}
