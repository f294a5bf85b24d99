package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel/manga-link-finder/internal/catalog"
	"github.com/gabriel/manga-link-finder/internal/models"
	"github.com/gabriel/manga-link-finder/internal/notifications"
)

type catalogRefresher interface {
	Refresh(ctx context.Context, userName string) (catalog.RefreshResult, error)
}

// Refresher periodically refreshes the catalog snapshot of one user and
// notifies about entries that are new or were updated since the last run.
type Refresher struct {
	catalog  catalogRefresher
	notifier notifications.Notifier
	cfg      RefresherConfig
	logger   *slog.Logger
	stopCh   chan struct{}
}

type RefresherConfig struct {
	Interval time.Duration
	UserName string
	// NotifyStatuses limits notifications to entries with these list
	// statuses (e.g. CURRENT). Empty means every status.
	NotifyStatuses []string
}

func NewRefresher(source catalogRefresher, notifier notifications.Notifier, cfg RefresherConfig, logger *slog.Logger) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Minute
	}
	if notifier == nil {
		notifier = notifications.NoopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Refresher{
		catalog:  source,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (r *Refresher) Start(ctx context.Context) {
	r.logger.Info("catalog refresher started", "interval", r.cfg.Interval.String(), "user", r.cfg.UserName)
	ticker := time.NewTicker(r.cfg.Interval)
	go func() {
		defer ticker.Stop()
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Warn("catalog refresher initial run failed", "error", err)
		}
		for {
			select {
			case <-ctx.Done():
				r.logger.Info("catalog refresher stopped")
				close(r.stopCh)
				return
			case <-ticker.C:
				if _, err := r.RunOnce(ctx); err != nil {
					r.logger.Warn("catalog refresher cycle failed", "error", err)
				}
			}
		}
	}()
}

func (r *Refresher) StopWait(timeout time.Duration) {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	select {
	case <-r.stopCh:
	case <-time.After(timeout):
	}
}

// RunOnce refreshes the snapshot and returns how many notifications were
// sent. The first snapshot of a user only establishes a baseline.
func (r *Refresher) RunOnce(ctx context.Context) (int, error) {
	if strings.TrimSpace(r.cfg.UserName) == "" {
		return 0, fmt.Errorf("catalog user is not configured")
	}

	requestCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	result, err := r.catalog.Refresh(requestCtx, r.cfg.UserName)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("refresh catalog: %w", err)
	}

	if result.Previous == nil {
		r.logger.Info("catalog baseline stored", "user", r.cfg.UserName, "entries", len(result.Collection.Entries()))
		return 0, nil
	}

	sent := 0
	for _, entry := range catalog.ChangedEntries(*result.Previous, result.Collection) {
		if !r.shouldNotify(entry) {
			continue
		}
		if err := r.notifier.Notify(ctx, entryMessage(entry)); err != nil {
			r.logger.Warn("catalog notification failed", "mediaId", entry.Media.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (r *Refresher) shouldNotify(entry models.CatalogEntry) bool {
	if len(r.cfg.NotifyStatuses) == 0 {
		return true
	}
	for _, status := range r.cfg.NotifyStatuses {
		if strings.EqualFold(strings.TrimSpace(status), entry.Status) {
			return true
		}
	}
	return false
}

func entryMessage(entry models.CatalogEntry) notifications.Message {
	title := entry.Media.Title.UserPreferred
	if title == "" {
		title = entry.Media.Title.Romaji
	}
	return notifications.Message{
		Title: "Catalog entry updated",
		Body:  fmt.Sprintf("%s (progress %d)", title, entry.Progress),
		Context: map[string]any{
			"mediaId":   entry.Media.ID,
			"status":    entry.Status,
			"progress":  entry.Progress,
			"updatedAt": entry.UpdatedAt,
		},
	}
}
