package view

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Refresher recomputes portfolio snapshots for tracked users on a fixed
// cadence. It replaces ad-hoc client polling with one scheduled task that
// stops with its context. The refresh is advisory: a failed cycle keeps the
// previous snapshot and the next tick tries again.
type Refresher struct {
	builder  *Builder
	interval time.Duration
	logger   *zap.Logger

	mu        sync.RWMutex
	tracked   map[string]struct{}
	snapshots map[string]*Snapshot
}

// NewRefresher creates a refresher for the given cadence.
func NewRefresher(builder *Builder, interval time.Duration, logger *zap.Logger) *Refresher {
	return &Refresher{
		builder:   builder,
		interval:  interval,
		logger:    logger,
		tracked:   make(map[string]struct{}),
		snapshots: make(map[string]*Snapshot),
	}
}

// Track registers a user for periodic refresh.
func (r *Refresher) Track(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracked[userID] = struct{}{}
}

// Untrack stops refreshing a user and drops the cached snapshot.
func (r *Refresher) Untrack(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tracked, userID)
	delete(r.snapshots, userID)
}

// Snapshot returns the latest cached snapshot for the user, if any.
func (r *Refresher) Snapshot(userID string) (*Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.snapshots[userID]
	return s, ok
}

// Run starts the refresh loop and blocks until the context is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Starting portfolio refresh loop", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stopping portfolio refresh loop")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	r.mu.RLock()
	users := make([]string, 0, len(r.tracked))
	for id := range r.tracked {
		users = append(users, id)
	}
	r.mu.RUnlock()

	for _, userID := range users {
		snapshot, err := r.builder.Build(ctx, userID)
		if err != nil {
			r.logger.Warn("Snapshot refresh failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			continue
		}
		r.mu.Lock()
		r.snapshots[userID] = snapshot
		r.mu.Unlock()
	}
}
