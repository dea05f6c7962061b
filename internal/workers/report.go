package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/authdeck/authdeck/internal/models"
	"github.com/authdeck/authdeck/internal/reports"
	"github.com/authdeck/authdeck/internal/tasks"
)

// HandleGenerateReport builds a pending report and marks it ready.
// Permanent failures mark the report failed and skip retries; other errors
// are retried and mark the report failed on the last attempt.
func HandleGenerateReport(ctx context.Context, t *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	payload, err := tasks.ParseTaskPayload(t)
	if err != nil {
		return fmt.Errorf("failed to parse payload: %w: %w", err, asynq.SkipRetry)
	}

	log := logger.With().Str("report_id", payload.ReportID).Logger()

	var report models.Report
	if err := models.FindByID(db.WithContext(ctx), payload.ReportID, &report); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Msg("Report no longer exists, skipping")
			return fmt.Errorf("report %s not found: %w", payload.ReportID, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to load report: %w", err)
	}

	if report.Status != models.ReportPending {
		log.Info().Str("status", report.Status).Msg("Report already processed, skipping")
		return nil
	}

	content, err := reports.Generate(ctx, db, report.Type, time.Now())
	if err != nil {
		if errors.Is(err, reports.ErrUnknownReportType) || isLastAttempt(ctx) {
			log.Error().Err(err).Str("type", report.Type).Msg("Report generation failed")
			if markErr := markReportFailed(ctx, db, &report, err); markErr != nil {
				log.Error().Err(markErr).Msg("Failed to mark report failed")
			}
			return fmt.Errorf("failed to generate report: %w: %w", err, asynq.SkipRetry)
		}
		log.Warn().Err(err).Msg("Report generation failed, will retry")
		return fmt.Errorf("failed to generate report: %w", err)
	}

	now := time.Now().UTC()
	report.Status = models.ReportReady
	report.Content = content
	report.CompletedAt = &now
	if err := db.WithContext(ctx).Select("status", "content", "completed_at").Updates(&report).Error; err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	log.Info().
		Str("type", report.Type).
		Dur("duration", now.Sub(report.CreatedAt)).
		Msg("Report generated")
	return nil
}

func markReportFailed(ctx context.Context, db *gorm.DB, report *models.Report, cause error) error {
	now := time.Now().UTC()
	report.Status = models.ReportFailed
	report.Error = cause.Error()
	report.CompletedAt = &now
	return db.WithContext(ctx).Select("status", "error", "completed_at").Updates(report).Error
}

func isLastAttempt(ctx context.Context) bool {
	retried, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	return ok1 && ok2 && retried >= maxRetry
}
