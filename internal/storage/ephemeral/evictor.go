package ephemeral

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Eviction defaults. A pending registration that sits unanswered for an
// hour is considered abandoned.
const (
	DefaultEvictionInterval  = 15 * time.Minute
	DefaultEvictionThreshold = time.Hour
)

// RunEvictor deletes pending registrations older than threshold, once per
// interval tick, until ctx is done. A failed pass is logged and the loop
// keeps running; the next tick retries.
func (s *Store) RunEvictor(ctx context.Context, interval, threshold time.Duration, log *slog.Logger) error {
	if interval <= 0 {
		interval = DefaultEvictionInterval
	}
	if threshold <= 0 {
		threshold = DefaultEvictionThreshold
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("eviction loop started", "interval", interval, "threshold", threshold)
	for {
		select {
		case <-ctx.Done():
			log.Info("eviction loop stopped")
			return ctx.Err()
		case <-ticker.C:
			n, err := s.evictOnce(ctx, threshold)
			if err != nil {
				log.Error("eviction pass failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("evicted pending users", "count", n)
			}
		}
	}
}

// evictOnce deletes every row whose created timestamp is older than
// now - threshold and reports how many went.
func (s *Store) evictOnce(ctx context.Context, threshold time.Duration) (int, error) {
	cutoff := formatTime(s.now().Add(-threshold))
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE created < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("evict pending users: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("evict pending users: %w", err)
	}
	return int(n), nil
}
