package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gabriel/manga-link-finder/internal/config"
	"github.com/gabriel/manga-link-finder/internal/database"
	"github.com/gabriel/manga-link-finder/internal/repository"
)

type snapshotPruner interface {
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

func main() {
	var (
		olderThan = flag.Duration("older-than", 7*24*time.Hour, "Delete catalog snapshots fetched longer ago than this")
		dryRun    = flag.Bool("dry-run", false, "Only report how many snapshots would be deleted")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	db, err := database.OpenAndMigrate(context.Background(), cfg.SQLitePath, cfg.MigrationsPath, logger)
	if err != nil {
		slog.Error("failed to prepare sqlite", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-*olderThan)
	removed, err := prune(ctx, repository.NewCatalogSnapshotRepository(db), cutoff, *dryRun)
	if err != nil {
		slog.Error("failed to prune catalog snapshots", "error", err)
		os.Exit(1)
	}

	if *dryRun {
		slog.Info("dry-run complete", "cutoff", cutoff.Format(time.RFC3339), "snapshots_to_delete", removed)
		return
	}
	slog.Info("prune completed", "cutoff", cutoff.Format(time.RFC3339), "deleted_snapshots", removed)
}

func prune(ctx context.Context, store snapshotPruner, cutoff time.Time, dryRun bool) (int64, error) {
	if cutoff.IsZero() {
		return 0, fmt.Errorf("cutoff is required")
	}
	if dryRun {
		return store.CountOlderThan(ctx, cutoff)
	}
	return store.DeleteOlderThan(ctx, cutoff)
}
