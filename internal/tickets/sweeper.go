package tickets

import (
	"context"
	"log/slog"
	"time"

	"github.com/solutionai/ticket-triage/backend/internal/timeutil"
)

// RunRetentionSweeper periodically deletes tickets and webhook delivery logs
// older than the retention window. It blocks until ctx is cancelled; run it
// in its own goroutine.
func RunRetentionSweeper(ctx context.Context, svc *Service, logger *slog.Logger, interval time.Duration, days int, loc *time.Location) {
	if days <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepOnce(ctx, svc, logger, timeutil.RetentionCutoff(time.Now(), days, loc))
		}
	}
}

func sweepOnce(ctx context.Context, svc *Service, logger *slog.Logger, cutoff time.Time) {
	deleted, err := svc.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		logger.Error("retention sweep failed", slog.String("error", err.Error()))
	} else if deleted > 0 {
		logger.Info("retention sweep removed old tickets",
			slog.Int64("deleted", deleted),
			slog.Time("cutoff", cutoff))
	}

	pruned, err := svc.PruneWebhookLogs(ctx, cutoff)
	if err != nil {
		logger.Error("webhook log sweep failed", slog.String("error", err.Error()))
	} else if pruned > 0 {
		logger.Info("retention sweep removed old webhook logs",
			slog.Int64("deleted", pruned),
			slog.Time("cutoff", cutoff))
	}
}
