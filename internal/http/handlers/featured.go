package handlers

import (
	"context"
	"log/slog"

	"github.com/gabriel/manga-link-finder/internal/featured"
	"github.com/gofiber/fiber/v2"
)

type FeaturedSource interface {
	Overview(ctx context.Context) (featured.Overview, error)
	Omegascans(ctx context.Context) ([]featured.Item, error)
	Asurascans(ctx context.Context, page int) (featured.Page, error)
}

type FeaturedHandler struct {
	source FeaturedSource
	logger *slog.Logger
}

func NewFeaturedHandler(source FeaturedSource, logger *slog.Logger) *FeaturedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeaturedHandler{source: source, logger: logger}
}

func (h *FeaturedHandler) Overview(c *fiber.Ctx) error {
	overview, err := h.source.Overview(c.UserContext())
	if err != nil {
		h.logger.Warn("featured overview failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "failed to load featured series"})
	}
	return c.JSON(overview)
}

func (h *FeaturedHandler) Omegascans(c *fiber.Ctx) error {
	items, err := h.source.Omegascans(c.UserContext())
	if err != nil {
		h.logger.Warn("omegascans featured failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "failed to load featured series"})
	}
	return c.JSON(fiber.Map{"featured": items})
}

func (h *FeaturedHandler) Asurascans(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "page must be a positive integer"})
	}

	result, err := h.source.Asurascans(c.UserContext(), page)
	if err != nil {
		h.logger.Warn("asurascans featured failed", "page", page, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "failed to load featured series"})
	}
	return c.JSON(fiber.Map{"data": result.Items, "page": result.Page, "hasMore": result.HasMore})
}
