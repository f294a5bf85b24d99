package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gabriel/manga-link-finder/internal/catalog"
	"github.com/gabriel/manga-link-finder/internal/models"
	"github.com/gabriel/manga-link-finder/internal/resolver"
	"github.com/gabriel/manga-link-finder/internal/sites"
	"github.com/gabriel/manga-link-finder/internal/sites/native/comick"
	"github.com/gofiber/fiber/v2"
)

type LinkResolver interface {
	Resolve(ctx context.Context, titles []string, isAdult bool) (resolver.Result, error)
}

type CatalogReader interface {
	Collection(ctx context.Context, userName string) (models.CatalogCollection, error)
}

type resolveRequest struct {
	Titles  []string `json:"titles"`
	IsAdult bool     `json:"isAdult"`
}

type SearchHandler struct {
	registry  *sites.Registry
	resolver  LinkResolver
	catalog   CatalogReader
	userName  string
	adultRule string
	logger    *slog.Logger
}

func NewSearchHandler(registry *sites.Registry, linkResolver LinkResolver, catalogReader CatalogReader, userName string, adultRule string, logger *slog.Logger) *SearchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchHandler{
		registry:  registry,
		resolver:  linkResolver,
		catalog:   catalogReader,
		userName:  strings.TrimSpace(userName),
		adultRule: adultRule,
		logger:    logger,
	}
}

// ByTitle looks a free-text title up on Comick only.
func (h *SearchHandler) ByTitle(c *fiber.Ctx) error {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "title is required"})
	}

	site, ok := h.registry.Get(comick.Key)
	if !ok {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "title search is unavailable"})
	}

	link, found := site.Resolve(c.UserContext(), title)
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No external link found"})
	}
	return c.JSON(fiber.Map{"link": link})
}

// ByMediaID resolves links for one entry of the configured catalog list.
func (h *SearchHandler) ByMediaID(c *fiber.Ctx) error {
	mediaID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || mediaID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid manga id"})
	}

	userName := catalogUser(c, h.userName)
	if userName == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "catalog user is not configured"})
	}

	collection, err := h.catalog.Collection(c.UserContext(), userName)
	if err != nil {
		h.logger.Warn("catalog load failed", "user", userName, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "failed to load catalog"})
	}

	entry, err := catalog.FindEntry(collection, mediaID)
	if errors.Is(err, catalog.ErrEntryNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Manga not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to find manga"})
	}

	titles := catalog.BuildCandidateTitles(entry)
	isAdult := catalog.IsAdult(entry, h.adultRule)

	links, err := h.resolver.Resolve(c.UserContext(), titles, isAdult)
	if errors.Is(err, resolver.ErrNotFound) || errors.Is(err, resolver.ErrNoTitles) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "External link not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to resolve links"})
	}

	return c.JSON(fiber.Map{
		"id":      mediaID,
		"titles":  titles,
		"isAdult": isAdult,
		"links":   links,
	})
}

func (h *SearchHandler) Resolve(c *fiber.Ctx) error {
	var req resolveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid json body"})
	}

	links, err := h.resolver.Resolve(c.UserContext(), req.Titles, req.IsAdult)
	switch {
	case errors.Is(err, resolver.ErrNoTitles):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, resolver.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "External link not found"})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to resolve links"})
	}

	return c.JSON(fiber.Map{"links": links})
}

func catalogUser(c *fiber.Ctx, fallback string) string {
	if user := strings.TrimSpace(c.Query("user")); user != "" {
		return user
	}
	return fallback
}
