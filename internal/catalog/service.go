package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel/manga-link-finder/internal/metrics"
	"github.com/gabriel/manga-link-finder/internal/models"
)

var ErrEntryNotFound = errors.New("catalog entry not found")

type CollectionFetcher interface {
	FetchCollection(ctx context.Context, userName string) (models.CatalogCollection, error)
}

type SnapshotStore interface {
	Get(ctx context.Context, userName string) (*models.CatalogSnapshot, error)
	Save(ctx context.Context, snapshot models.CatalogSnapshot) error
}

// RefreshResult carries the freshly fetched collection and the snapshot it
// replaced, when there was one.
type RefreshResult struct {
	Collection models.CatalogCollection
	Previous   *models.CatalogCollection
}

// Service serves a user's collection, caching it in the snapshot store for
// ttl. A nil store disables caching.
type Service struct {
	fetcher CollectionFetcher
	store   SnapshotStore
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(fetcher CollectionFetcher, store SnapshotStore, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{fetcher: fetcher, store: store, ttl: ttl, logger: logger, now: time.Now}
}

// Collection returns the cached snapshot while it is fresh, otherwise it
// fetches and stores a new one. A stale snapshot is served if the fetch
// fails.
func (s *Service) Collection(ctx context.Context, userName string) (models.CatalogCollection, error) {
	userName = strings.TrimSpace(userName)

	snapshot := s.loadSnapshot(ctx, userName)
	if snapshot != nil && s.ttl > 0 && s.now().Sub(snapshot.FetchedAt) < s.ttl {
		metrics.ObserveCatalogLoad("cache", "hit")
		return snapshot.Collection, nil
	}

	collection, err := s.fetchAndStore(ctx, userName)
	if err != nil {
		if snapshot != nil {
			s.logger.Warn("catalog fetch failed, serving stale snapshot", "user", userName, "fetchedAt", snapshot.FetchedAt, "error", err)
			metrics.ObserveCatalogLoad("cache", "stale")
			return snapshot.Collection, nil
		}
		return models.CatalogCollection{}, err
	}
	return collection, nil
}

// Refresh always fetches and reports the snapshot it replaced.
func (s *Service) Refresh(ctx context.Context, userName string) (RefreshResult, error) {
	userName = strings.TrimSpace(userName)

	var previous *models.CatalogCollection
	if snapshot := s.loadSnapshot(ctx, userName); snapshot != nil {
		previous = &snapshot.Collection
	}

	collection, err := s.fetchAndStore(ctx, userName)
	if err != nil {
		return RefreshResult{}, err
	}
	return RefreshResult{Collection: collection, Previous: previous}, nil
}

func (s *Service) loadSnapshot(ctx context.Context, userName string) *models.CatalogSnapshot {
	if s.store == nil {
		return nil
	}
	snapshot, err := s.store.Get(ctx, userName)
	if err != nil {
		s.logger.Warn("catalog snapshot read failed", "user", userName, "error", err)
		return nil
	}
	return snapshot
}

func (s *Service) fetchAndStore(ctx context.Context, userName string) (models.CatalogCollection, error) {
	collection, err := s.fetcher.FetchCollection(ctx, userName)
	if err != nil {
		metrics.ObserveCatalogLoad("api", "error")
		return models.CatalogCollection{}, fmt.Errorf("fetch catalog for %q: %w", userName, err)
	}
	metrics.ObserveCatalogLoad("api", "ok")

	if s.store != nil {
		snapshot := models.CatalogSnapshot{UserName: userName, Collection: collection, FetchedAt: s.now().UTC()}
		if err := s.store.Save(ctx, snapshot); err != nil {
			s.logger.Warn("catalog snapshot write failed", "user", userName, "error", err)
		}
	}
	return collection, nil
}

// FindEntry looks up the entry whose media id is mediaID.
func FindEntry(collection models.CatalogCollection, mediaID int64) (models.CatalogEntry, error) {
	for _, list := range collection.Lists {
		for _, entry := range list.Entries {
			if entry.Media.ID == mediaID {
				return entry, nil
			}
		}
	}
	return models.CatalogEntry{}, ErrEntryNotFound
}

// ChangedEntries lists the entries of current that are new or whose
// updatedAt advanced compared to previous.
func ChangedEntries(previous models.CatalogCollection, current models.CatalogCollection) []models.CatalogEntry {
	known := make(map[int64]int64)
	for _, entry := range previous.Entries() {
		known[entry.Media.ID] = entry.UpdatedAt
	}

	changed := make([]models.CatalogEntry, 0)
	for _, entry := range current.Entries() {
		updatedAt, ok := known[entry.Media.ID]
		if !ok || entry.UpdatedAt > updatedAt {
			changed = append(changed, entry)
		}
	}
	return changed
}
