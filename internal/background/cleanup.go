package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RevocationCleaner deletes revocation rows whose tokens have expired
type RevocationCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// ThrottleSweeper drops login throttle records that no longer matter.
// Only the in-process throttle needs this; Redis expires its own keys.
type ThrottleSweeper interface {
	Sweep(now time.Time) int
}

// CleanupManager periodically removes expired revoked tokens and stale throttle records
type CleanupManager struct {
	revocations RevocationCleaner
	throttle    ThrottleSweeper
	logger      *slog.Logger
	interval    time.Duration
	now         func() time.Time
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewCleanupManager creates a new cleanup manager. throttle may be nil.
func NewCleanupManager(
	revocations RevocationCleaner,
	throttle ThrottleSweeper,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		revocations: revocations,
		throttle:    throttle,
		logger:      logger,
		interval:    interval,
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the periodic cleanup task and blocks until stopped
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	if cm.throttle != nil {
		if swept := cm.throttle.Sweep(cm.now()); swept > 0 {
			cm.logger.Debug("login throttle sweep completed", slog.Int("records_removed", swept))
		}
	}

	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := cm.revocations.CleanupExpiredTokens(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to cleanup expired tokens", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		cm.logger.Info("expired token cleanup completed", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the cleanup manager to stop. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
