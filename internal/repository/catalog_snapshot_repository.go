package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel/manga-link-finder/internal/models"
)

// CatalogSnapshotRepository keeps the last catalog collection fetched per
// user. Resolved links are never stored here.
type CatalogSnapshotRepository struct {
	db *sql.DB
}

func NewCatalogSnapshotRepository(db *sql.DB) *CatalogSnapshotRepository {
	return &CatalogSnapshotRepository{db: db}
}

func (r *CatalogSnapshotRepository) Get(ctx context.Context, userName string) (*models.CatalogSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_name, payload, fetched_at
		FROM catalog_snapshots
		WHERE user_name = ?
	`, normalizeUserName(userName))

	var (
		item    models.CatalogSnapshot
		payload string
	)
	if err := row.Scan(&item.UserName, &payload, &item.FetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get catalog snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &item.Collection); err != nil {
		return nil, fmt.Errorf("decode catalog snapshot: %w", err)
	}
	return &item, nil
}

func (r *CatalogSnapshotRepository) Save(ctx context.Context, snapshot models.CatalogSnapshot) error {
	userName := normalizeUserName(snapshot.UserName)
	if userName == "" {
		return fmt.Errorf("snapshot user name is required")
	}

	payload, err := json.Marshal(snapshot.Collection)
	if err != nil {
		return fmt.Errorf("encode catalog snapshot: %w", err)
	}

	fetchedAt := snapshot.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO catalog_snapshots (user_name, payload, entry_count, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_name) DO UPDATE SET
			payload = excluded.payload,
			entry_count = excluded.entry_count,
			fetched_at = excluded.fetched_at,
			updated_at = CURRENT_TIMESTAMP
	`, userName, string(payload), len(snapshot.Collection.Entries()), fetchedAt.UTC())
	if err != nil {
		return fmt.Errorf("save catalog snapshot: %w", err)
	}
	return nil
}

func (r *CatalogSnapshotRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1)
		FROM catalog_snapshots
		WHERE fetched_at < ?
	`, cutoff.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count stale catalog snapshots: %w", err)
	}
	return count, nil
}

func (r *CatalogSnapshotRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM catalog_snapshots
		WHERE fetched_at < ?
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete stale catalog snapshots: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read deleted snapshot count: %w", err)
	}
	return affected, nil
}

func normalizeUserName(userName string) string {
	return strings.ToLower(strings.TrimSpace(userName))
}
