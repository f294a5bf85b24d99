package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gabriel/manga-link-finder/internal/database"
	"github.com/gabriel/manga-link-finder/internal/models"
)

func newTestRepository(t *testing.T) *CatalogSnapshotRepository {
	t.Helper()

	db, err := database.OpenAndMigrate(context.Background(), filepath.Join(t.TempDir(), "app.sqlite"), "", nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewCatalogSnapshotRepository(db)
}

func TestCatalogSnapshotSaveAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	missing, err := repo.Get(ctx, "reader")
	if err != nil || missing != nil {
		t.Fatalf("expected no snapshot, got %+v %v", missing, err)
	}

	fetchedAt := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	snapshot := models.CatalogSnapshot{
		UserName: "Reader",
		Collection: models.CatalogCollection{Lists: []models.CatalogList{{
			Name: "Reading",
			Entries: []models.CatalogEntry{{
				ID:        1,
				UpdatedAt: 1700000000,
				Media:     models.Media{ID: 101, IsAdult: true, Title: models.MediaTitle{UserPreferred: "Tower of God"}},
			}},
		}}},
		FetchedAt: fetchedAt,
	}
	if err := repo.Save(ctx, snapshot); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := repo.Get(ctx, " reader ")
	if err != nil || loaded == nil {
		t.Fatalf("get: %+v %v", loaded, err)
	}
	if loaded.UserName != "reader" || !loaded.FetchedAt.Equal(fetchedAt) {
		t.Fatalf("unexpected snapshot header %+v", loaded)
	}
	entries := loaded.Collection.Entries()
	if len(entries) != 1 || entries[0].Media.Title.UserPreferred != "Tower of God" || !entries[0].Media.IsAdult {
		t.Fatalf("unexpected snapshot entries %+v", entries)
	}

	snapshot.Collection.Lists[0].Entries = nil
	snapshot.FetchedAt = fetchedAt.Add(time.Hour)
	if err := repo.Save(ctx, snapshot); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	loaded, _ = repo.Get(ctx, "reader")
	if len(loaded.Collection.Entries()) != 0 || !loaded.FetchedAt.Equal(fetchedAt.Add(time.Hour)) {
		t.Fatalf("expected upsert to replace snapshot, got %+v", loaded)
	}
}

func TestCatalogSnapshotPrune(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = repo.Save(ctx, models.CatalogSnapshot{UserName: "old", FetchedAt: now.Add(-48 * time.Hour)})
	_ = repo.Save(ctx, models.CatalogSnapshot{UserName: "fresh", FetchedAt: now})

	cutoff := now.Add(-24 * time.Hour)
	count, err := repo.CountOlderThan(ctx, cutoff)
	if err != nil || count != 1 {
		t.Fatalf("expected 1 stale snapshot, got %d %v", count, err)
	}

	deleted, err := repo.DeleteOlderThan(ctx, cutoff)
	if err != nil || deleted != 1 {
		t.Fatalf("expected 1 deleted snapshot, got %d %v", deleted, err)
	}
	if snapshot, _ := repo.Get(ctx, "old"); snapshot != nil {
		t.Fatalf("expected old snapshot removed")
	}
	if snapshot, _ := repo.Get(ctx, "fresh"); snapshot == nil {
		t.Fatalf("expected fresh snapshot kept")
	}

	if err := repo.Save(ctx, models.CatalogSnapshot{UserName: "  "}); err == nil {
		t.Fatalf("expected blank user to be rejected")
	}
}
