package handlers

import (
	"context"
	"log/slog"

	"github.com/gabriel/manga-link-finder/internal/recommend"
	"github.com/gofiber/fiber/v2"
)

type Recommender interface {
	Configured() bool
	Recommend(ctx context.Context, prefs recommend.Preferences) (string, error)
}

type ChatHandler struct {
	recommender Recommender
	logger      *slog.Logger
}

func NewChatHandler(recommender Recommender, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{recommender: recommender, logger: logger}
}

func (h *ChatHandler) Recommend(c *fiber.Ctx) error {
	if h.recommender == nil || !h.recommender.Configured() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "chat recommendations are not configured"})
	}

	var prefs recommend.Preferences
	if err := c.BodyParser(&prefs); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid json body"})
	}

	text, err := h.recommender.Recommend(c.UserContext(), prefs)
	if err != nil {
		h.logger.Warn("chat recommendation failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to generate recommendations"})
	}
	return c.JSON(fiber.Map{"text": text})
}
