package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/authdeck/authdeck/internal/analytics"
)

// HandleCaptureAnalytics stores a fresh analytics snapshot
func HandleCaptureAnalytics(ctx context.Context, _ *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	snap, err := analytics.Capture(ctx, db, time.Now())
	if err != nil {
		return fmt.Errorf("failed to capture analytics: %w", err)
	}

	logger.Info().
		Str("snapshot_id", snap.ID).
		Int64("total_users", snap.TotalUsers).
		Int64("active_users", snap.ActiveUsers).
		Msg("Analytics snapshot captured")
	return nil
}
