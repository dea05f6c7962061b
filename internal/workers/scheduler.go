package workers

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/authdeck/authdeck/internal/tasks"
)

// purgeSchedule runs the refresh token purge at the top of every hour
const purgeSchedule = "0 * * * *"

// StartScheduler enqueues analytics captures on the given cron schedule and
// an hourly refresh token purge. Stop the returned cron on shutdown.
func StartScheduler(analyticsSchedule string, client tasks.Enqueuer, logger zerolog.Logger) (*cron.Cron, error) {
	c := cron.New()

	if _, err := c.AddFunc(analyticsSchedule, func() {
		enqueue(client, tasks.NewCaptureAnalyticsTask(), logger, asynq.Unique(time.Minute))
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(purgeSchedule, func() {
		enqueue(client, tasks.NewPurgeRefreshTokensTask(), logger, asynq.Unique(time.Minute), asynq.Queue("low"))
	}); err != nil {
		return nil, err
	}

	c.Start()

	logger.Info().
		Str("analytics_schedule", analyticsSchedule).
		Str("purge_schedule", purgeSchedule).
		Msg("Scheduler started")

	return c, nil
}

func enqueue(client tasks.Enqueuer, task *asynq.Task, logger zerolog.Logger, opts ...asynq.Option) {
	info, err := client.EnqueueContext(context.Background(), task, opts...)
	if err != nil {
		logger.Error().Err(err).Str("task", task.Type()).Msg("Failed to enqueue scheduled task")
		return
	}

	logger.Debug().Str("task", task.Type()).Str("task_id", info.ID).Msg("Scheduled task enqueued")
}
