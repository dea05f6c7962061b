package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/authdeck/authdeck/internal/models"
)

// revokedRetention keeps rotated tokens around briefly so a replayed token
// is logged as revoked rather than unknown
const revokedRetention = 24 * time.Hour

// HandlePurgeRefreshTokens deletes expired refresh tokens and tokens revoked
// more than a day ago
func HandlePurgeRefreshTokens(ctx context.Context, _ *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	n, err := PurgeRefreshTokens(ctx, db, time.Now())
	if err != nil {
		return err
	}

	logger.Info().Int64("deleted", n).Msg("Purged refresh tokens")
	return nil
}

// PurgeRefreshTokens removes dead refresh tokens as of now
func PurgeRefreshTokens(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	now = now.UTC()
	result := db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at < ?", now, now.Add(-revokedRetention)).
		Delete(&models.RefreshToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge refresh tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}
