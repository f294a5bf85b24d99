package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gabriel/manga-link-finder/internal/catalog"
	"github.com/gabriel/manga-link-finder/internal/config"
	"github.com/gabriel/manga-link-finder/internal/database"
	"github.com/gabriel/manga-link-finder/internal/featured"
	"github.com/gabriel/manga-link-finder/internal/fetch"
	apihttp "github.com/gabriel/manga-link-finder/internal/http"
	"github.com/gabriel/manga-link-finder/internal/logging"
	"github.com/gabriel/manga-link-finder/internal/notifications"
	"github.com/gabriel/manga-link-finder/internal/recommend"
	"github.com/gabriel/manga-link-finder/internal/repository"
	"github.com/gabriel/manga-link-finder/internal/resolver"
	"github.com/gabriel/manga-link-finder/internal/scheduler"
	sitedefaults "github.com/gabriel/manga-link-finder/internal/sites/defaults"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, logCloser := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Service: cfg.AppName})
	defer logCloser.Close()
	slog.SetDefault(logger)

	db, err := database.OpenAndMigrate(context.Background(), cfg.SQLitePath, cfg.MigrationsPath, logger)
	if err != nil {
		slog.Error("failed to prepare sqlite", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	fetcher := fetch.NewClient(fetch.Config{
		Timeout:     cfg.FetchTimeout,
		RatePerHost: cfg.FetchRatePerHost,
	}, nil, logger)

	siteRegistry, verifier, registryErr := sitedefaults.NewRegistry(fetcher, cfg.SitesConfigPath, logger)
	if registryErr != nil {
		slog.Warn("site registry loaded with warnings", "error", registryErr)
	}

	linkResolver := resolver.New(siteRegistry, verifier, resolver.Config{
		Concurrency: cfg.ResolveConcurrency,
		Timeout:     cfg.ResolveTimeout,
	}, logger)

	catalogService := catalog.NewService(
		catalog.NewClient(cfg.CatalogAPIURL, nil),
		repository.NewCatalogSnapshotRepository(db),
		cfg.CatalogCacheTTL,
		logger,
	)

	notifier, err := notifications.FromConfig(cfg.WebhookURL, logger)
	if err != nil {
		slog.Error("invalid notifier configuration", "error", err)
		os.Exit(1)
	}

	refresherCtx, refresherCancel := context.WithCancel(context.Background())
	refresher := scheduler.NewRefresher(catalogService, notifier, scheduler.RefresherConfig{
		Interval:       cfg.RefreshInterval,
		UserName:       cfg.CatalogUser,
		NotifyStatuses: cfg.NotifyStatuses,
	}, logger)
	refreshing := cfg.RefreshEnabled && cfg.CatalogUser != ""
	if refreshing {
		refresher.Start(refresherCtx)
	} else if cfg.RefreshEnabled {
		slog.Warn("catalog refresher disabled: ANILIST_USER is empty")
	}

	app := apihttp.NewServer(cfg, apihttp.Dependencies{
		DB:       db,
		Sites:    siteRegistry,
		Resolver: linkResolver,
		Catalog:  catalogService,
		Featured: featured.NewClient(fetcher, featured.Options{}, logger),
		Recommender: recommend.New(recommend.Config{
			APIKey:  cfg.ChatAPIKey,
			BaseURL: cfg.ChatBaseURL,
			Model:   cfg.ChatModel,
		}, logger),
		Logger: logger,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server stopped", "error", err)
		}
	}()

	slog.Info("api started", "port", cfg.Port, "env", cfg.Environment, "sites", len(siteRegistry.List()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("shutting down server")
	refresherCancel()
	if refreshing {
		refresher.StopWait(2 * time.Second)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
