package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/q360hq/q360/internal/store"
)

// notificationRetention is how long read notifications are kept around.
const notificationRetention = 90 * 24 * time.Hour

// HousekeepingService periodically cleans up expired database records to
// prevent unbounded growth of revoked tokens, stale reset tokens and old
// notifications.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the
// given interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// Non-blocking; call Stop() to shut the worker down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker. Blocks until any
// in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup performs the actual deletions. Each one is independent, a
// failure in one won't stop the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	now := time.Now().UTC()
	s.Logger.Info("starting housekeeping cleanup")

	if err := s.Store.RevokedTokens().DeleteExpired(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired revoked tokens", "error", err)
	}

	if err := s.Store.Users().ClearExpiredResetTokens(ctx, now); err != nil {
		s.Logger.Error("failed to clear expired reset tokens", "error", err)
	}

	if err := s.Store.Notifications().DeleteOlderThan(ctx, now.Add(-notificationRetention)); err != nil {
		s.Logger.Error("failed to prune old notifications", "error", err)
	}

	s.Logger.Info("housekeeping cleanup completed")
}
