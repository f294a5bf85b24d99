// Package resolver fans candidate titles out over the sites serving an
// audience and collects the verified links per site.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel/manga-link-finder/internal/metrics"
	"github.com/gabriel/manga-link-finder/internal/sites"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency = 4
	DefaultTimeout     = 45 * time.Second
)

var (
	ErrNotFound = errors.New("no external link found")
	ErrNoTitles = errors.New("at least one candidate title is required")
)

// Result maps a site's display name to its distinct verified links. Sites
// without links are absent; an empty Result is never returned.
type Result map[string][]string

type SiteSource interface {
	ForAudience(audience string) []sites.Site
}

type Config struct {
	Concurrency int
	// Timeout bounds a whole Resolve call. Pairs still pending when it
	// expires are abandoned and the links verified so far are returned.
	Timeout time.Duration
}

type Resolver struct {
	sites    SiteSource
	verifier sites.LinkVerifier
	cfg      Config
	logger   *slog.Logger
}

type pair struct {
	title string
	site  sites.Site
}

func New(source SiteSource, verifier sites.LinkVerifier, cfg Config, logger *slog.Logger) *Resolver {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{sites: source, verifier: verifier, cfg: cfg, logger: logger}
}

// Resolve searches every (title, site) pair for the audience. General
// audience lookups only use the first title.
func (r *Resolver) Resolve(ctx context.Context, titles []string, isAdult bool) (Result, error) {
	started := time.Now()
	audience := sites.AudienceFor(isAdult)

	candidates := cleanTitles(titles)
	if len(candidates) == 0 {
		return nil, ErrNoTitles
	}
	if !isAdult {
		candidates = candidates[:1]
	}

	active := r.sites.ForAudience(audience)
	pairs := make([]pair, 0, len(candidates)*len(active))
	for _, title := range candidates {
		for _, site := range active {
			pairs = append(pairs, pair{title: title, site: site})
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	// One slot per pair; each goroutine owns its slot.
	links := make([]string, len(pairs))

	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)
	for i, p := range pairs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			links[i] = r.resolvePair(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	result := aggregate(pairs, links)

	outcome := "found"
	if len(result) == 0 {
		outcome = "not_found"
	}
	if ctx.Err() != nil {
		r.logger.Warn("resolution deadline reached", "audience", audience, "titles", len(candidates), "elapsed", time.Since(started).String())
	}
	metrics.ObserveResolution(audience, outcome, time.Since(started))
	r.logger.Info("resolution finished", "audience", audience, "titles", len(candidates), "sites", len(active), "outcome", outcome)

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

func (r *Resolver) resolvePair(ctx context.Context, p pair) string {
	if ctx.Err() != nil {
		return ""
	}

	link, ok := p.site.Resolve(ctx, p.title)
	if !ok || link == "" {
		metrics.ObserveSite(p.site.Key(), "miss")
		return ""
	}

	// Every returned link passes the verifier, whatever the strategy did.
	if !r.verifier.Verify(ctx, p.site.Key(), link, p.title) {
		metrics.ObserveSite(p.site.Key(), "unverified")
		r.logger.Info("dropping unverified link", "site", p.site.Key(), "title", p.title, "url", link)
		return ""
	}

	metrics.ObserveSite(p.site.Key(), "found")
	return link
}

func aggregate(pairs []pair, links []string) Result {
	result := Result{}
	seen := map[string]map[string]struct{}{}

	for i, link := range links {
		if link == "" {
			continue
		}
		name := pairs[i].site.Name()
		if seen[name] == nil {
			seen[name] = map[string]struct{}{}
		}
		if _, exists := seen[name][link]; exists {
			continue
		}
		seen[name][link] = struct{}{}
		result[name] = append(result[name], link)
	}
	return result
}

func cleanTitles(titles []string) []string {
	cleaned := make([]string, 0, len(titles))
	for _, title := range titles {
		if strings.TrimSpace(title) == "" {
			continue
		}
		cleaned = append(cleaned, title)
	}
	return cleaned
}
