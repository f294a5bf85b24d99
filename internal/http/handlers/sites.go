package handlers

import (
	"context"
	"time"

	"github.com/gabriel/manga-link-finder/internal/sites"
	"github.com/gofiber/fiber/v2"
)

type SitesHandler struct {
	registry *sites.Registry
}

func NewSitesHandler(registry *sites.Registry) *SitesHandler {
	return &SitesHandler{registry: registry}
}

func (h *SitesHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"items": h.registry.List()})
}

func (h *SitesHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
	defer cancel()
	return c.JSON(fiber.Map{"items": h.registry.Health(ctx)})
}
