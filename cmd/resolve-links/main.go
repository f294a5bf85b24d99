package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gabriel/manga-link-finder/internal/catalog"
	"github.com/gabriel/manga-link-finder/internal/config"
	"github.com/gabriel/manga-link-finder/internal/database"
	"github.com/gabriel/manga-link-finder/internal/fetch"
	"github.com/gabriel/manga-link-finder/internal/models"
	"github.com/gabriel/manga-link-finder/internal/repository"
	"github.com/gabriel/manga-link-finder/internal/resolver"
	sitedefaults "github.com/gabriel/manga-link-finder/internal/sites/defaults"
)

type titleList []string

func (l *titleList) String() string {
	return strings.Join(*l, ", ")
}

func (l *titleList) Set(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return errors.New("title must not be blank")
	}
	*l = append(*l, trimmed)
	return nil
}

type resultLine struct {
	MediaID int64           `json:"mediaId,omitempty"`
	Titles  []string        `json:"titles"`
	IsAdult bool            `json:"isAdult"`
	Links   resolver.Result `json:"links,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type summary struct {
	Total    int
	Resolved int
	NotFound int
	Skipped  int
}

type linkResolver interface {
	Resolve(ctx context.Context, titles []string, isAdult bool) (resolver.Result, error)
}

func main() {
	var titles titleList
	flag.Var(&titles, "title", "Candidate title to resolve (repeatable, first one is the primary title)")
	var (
		adult    = flag.Bool("adult", false, "Resolve -title against adult sites")
		userName = flag.String("user", "", "Resolve every entry of this catalog user's list (defaults to ANILIST_USER)")
		statuses = flag.String("status", "", "Comma separated list statuses to include with -user (empty = all)")
		limit    = flag.Int("limit", 0, "Limit number of catalog entries processed (0 = all)")
		timeout  = flag.Duration("timeout", 45*time.Second, "Per-entry resolve timeout")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	fetcher := fetch.NewClient(fetch.Config{
		Timeout:     cfg.FetchTimeout,
		RatePerHost: cfg.FetchRatePerHost,
	}, nil, logger)

	registry, verifier, registryErr := sitedefaults.NewRegistry(fetcher, cfg.SitesConfigPath, logger)
	if registryErr != nil {
		slog.Warn("site registry loaded with warnings", "error", registryErr)
	}

	linkResolver := resolver.New(registry, verifier, resolver.Config{
		Concurrency: cfg.ResolveConcurrency,
		Timeout:     *timeout,
	}, logger)

	if len(titles) > 0 {
		line := resolveLine(context.Background(), linkResolver, 0, titles, *adult)
		if err := writeLine(os.Stdout, line); err != nil {
			slog.Error("failed to write result", "error", err)
			os.Exit(1)
		}
		if line.Error != "" {
			os.Exit(2)
		}
		return
	}

	user := strings.TrimSpace(*userName)
	if user == "" {
		user = cfg.CatalogUser
	}
	if user == "" {
		fmt.Fprintln(os.Stderr, "either -title or -user (or ANILIST_USER) is required")
		flag.Usage()
		os.Exit(2)
	}

	db, err := database.OpenAndMigrate(context.Background(), cfg.SQLitePath, cfg.MigrationsPath, logger)
	if err != nil {
		slog.Error("failed to prepare sqlite", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	catalogService := catalog.NewService(
		catalog.NewClient(cfg.CatalogAPIURL, nil),
		repository.NewCatalogSnapshotRepository(db),
		cfg.CatalogCacheTTL,
		logger,
	)

	loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	collection, err := catalogService.Collection(loadCtx, user)
	cancel()
	if err != nil {
		slog.Error("failed to load catalog", "user", user, "error", err)
		os.Exit(1)
	}

	entries := selectEntries(collection, splitStatuses(*statuses), *limit)
	if len(entries) == 0 {
		slog.Info("no catalog entries to resolve", "user", user, "limit", *limit)
		return
	}

	stats := resolveEntries(context.Background(), linkResolver, entries, cfg.AdultRule, os.Stdout)
	slog.Info(
		"resolve completed",
		"user", user,
		"total", stats.Total,
		"resolved", stats.Resolved,
		"not_found", stats.NotFound,
		"skipped", stats.Skipped,
	)
}

func resolveEntries(ctx context.Context, linkResolver linkResolver, entries []models.CatalogEntry, adultRule string, out io.Writer) summary {
	stats := summary{}
	for _, entry := range entries {
		stats.Total++

		titles := catalog.BuildCandidateTitles(entry)
		if len(titles) == 0 {
			stats.Skipped++
			slog.Warn("entry has no usable titles; skipping", "media_id", entry.Media.ID)
			continue
		}

		line := resolveLine(ctx, linkResolver, entry.Media.ID, titles, catalog.IsAdult(entry, adultRule))
		if line.Error == "" {
			stats.Resolved++
		} else {
			stats.NotFound++
		}

		if err := writeLine(out, line); err != nil {
			slog.Warn("failed to write result", "media_id", entry.Media.ID, "error", err)
		}
	}
	return stats
}

func resolveLine(ctx context.Context, linkResolver linkResolver, mediaID int64, titles []string, isAdult bool) resultLine {
	line := resultLine{MediaID: mediaID, Titles: titles, IsAdult: isAdult}

	links, err := linkResolver.Resolve(ctx, titles, isAdult)
	if err != nil {
		line.Error = err.Error()
		return line
	}
	line.Links = links
	return line
}

func selectEntries(collection models.CatalogCollection, statuses []string, limit int) []models.CatalogEntry {
	wanted := make(map[string]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[strings.ToUpper(status)] = struct{}{}
	}

	selected := make([]models.CatalogEntry, 0)
	for _, entry := range collection.Entries() {
		if len(wanted) > 0 {
			if _, ok := wanted[strings.ToUpper(entry.Status)]; !ok {
				continue
			}
		}
		selected = append(selected, entry)
		if limit > 0 && len(selected) == limit {
			break
		}
	}
	return selected
}

func splitStatuses(raw string) []string {
	parts := strings.Split(raw, ",")
	statuses := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			statuses = append(statuses, trimmed)
		}
	}
	return statuses
}

func writeLine(out io.Writer, line resultLine) error {
	encoded, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}
