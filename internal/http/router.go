package http

import (
	"database/sql"
	"log/slog"

	"github.com/gabriel/manga-link-finder/internal/config"
	"github.com/gabriel/manga-link-finder/internal/http/handlers"
	"github.com/gabriel/manga-link-finder/internal/metrics"
	"github.com/gabriel/manga-link-finder/internal/sites"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Dependencies struct {
	DB          *sql.DB
	Sites       *sites.Registry
	Resolver    handlers.LinkResolver
	Catalog     handlers.CatalogReader
	Featured    handlers.FeaturedSource
	Recommender handlers.Recommender
	Logger      *slog.Logger
}

func NewServer(cfg config.Config, deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
	})

	app.Use(recover.New())

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Sites == nil {
		deps.Sites = sites.NewRegistry()
	}

	health := handlers.NewHealthHandler(deps.DB)
	siteHandlers := handlers.NewSitesHandler(deps.Sites)
	search := handlers.NewSearchHandler(deps.Sites, deps.Resolver, deps.Catalog, cfg.CatalogUser, cfg.AdultRule, logger)
	catalogHandlers := handlers.NewCatalogHandler(deps.Catalog, cfg.CatalogUser, logger)
	featuredHandlers := handlers.NewFeaturedHandler(deps.Featured, logger)
	chat := handlers.NewChatHandler(deps.Recommender, logger)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(cfg.AppName + " API is running!")
	})
	app.Get("/health", health.Check)
	app.Get("/v1/health", health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	v1 := app.Group("/v1")
	v1.Get("/sites", siteHandlers.List)
	v1.Get("/sites/health", siteHandlers.Health)
	v1.Get("/catalog/manga", catalogHandlers.List)
	v1.Get("/search/title", search.ByTitle)
	v1.Get("/search/manga/:id", search.ByMediaID)
	v1.Post("/search/resolve", search.Resolve)
	v1.Get("/featured", featuredHandlers.Overview)
	v1.Get("/featured/omegascans", featuredHandlers.Omegascans)
	v1.Get("/featured/asurascans", featuredHandlers.Asurascans)
	v1.Post("/chat/recommend", chat.Recommend)

	return app
}
