package workers

import (
	"context"
	"time"

	"schoolpay_backend/internal/config"
	"schoolpay_backend/internal/logger"
	"schoolpay_backend/internal/repositories"
	"schoolpay_backend/internal/services"

	"log/slog"
)

// NotificationWorker owns the background maintenance of the notification
// table: the startup seed of the dashboard aggregates, a periodic recompute
// as a safety net behind the event-driven one, and cleanup of old read rows.
type NotificationWorker struct {
	bridge           *services.NotificationBridge
	notificationRepo repositories.NotificationRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	cleanupAfterDays int
}

func NewNotificationWorker(
	bridge *services.NotificationBridge,
	notificationRepo repositories.NotificationRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	cfg *config.Config,
) *NotificationWorker {
	return &NotificationWorker{
		bridge:           bridge,
		notificationRepo: notificationRepo,
		refreshTokenRepo: refreshTokenRepo,
		cleanupAfterDays: cfg.Notifications.CleanupAfterDays,
	}
}

func (w *NotificationWorker) Start(ctx context.Context) {
	// Seed dashboards right away so a restart does not leave staff with
	// empty counters until the next payment lands.
	w.bridge.Seed(ctx)

	go w.recomputeLoop(ctx)
	go w.cleanupLoop(ctx)
}

func (w *NotificationWorker) recomputeLoop(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification recompute loop stopped")
			return
		case <-ticker.C:
			w.bridge.RecomputeAggregates(ctx)
		}
	}
}

func (w *NotificationWorker) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification cleanup loop stopped")
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -w.cleanupAfterDays)

			removed, err := w.notificationRepo.CleanOldRead(cutoff)
			if err != nil {
				logger.Error("notification cleanup failed", slog.String("error", err.Error()))
			} else if removed > 0 {
				logger.Info("cleaned old read notifications", slog.Int64("removed", removed))
			}

			expired, err := w.refreshTokenRepo.CleanExpired()
			if err != nil {
				logger.Error("refresh token cleanup failed", slog.String("error", err.Error()))
			} else if expired > 0 {
				logger.Info("cleaned expired refresh tokens", slog.Int64("removed", expired))
			}
		}
	}
}
