package handlers

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	catalog  CatalogReader
	userName string
	logger   *slog.Logger
}

func NewCatalogHandler(catalogReader CatalogReader, userName string, logger *slog.Logger) *CatalogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogHandler{catalog: catalogReader, userName: strings.TrimSpace(userName), logger: logger}
}

func (h *CatalogHandler) List(c *fiber.Ctx) error {
	userName := catalogUser(c, h.userName)
	if userName == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "catalog user is not configured"})
	}

	collection, err := h.catalog.Collection(c.UserContext(), userName)
	if err != nil {
		h.logger.Warn("catalog load failed", "user", userName, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "failed to load catalog"})
	}

	return c.JSON(fiber.Map{"user": userName, "lists": collection.Lists})
}
