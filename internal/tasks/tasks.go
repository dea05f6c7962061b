package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TypeGenerateReport     = "report:generate"
	TypeCaptureAnalytics   = "analytics:capture"
	TypePurgeRefreshTokens = "tokens:purge"
)

// Enqueuer is the part of *asynq.Client the API server and scheduler use
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskPayload is the common payload for all tasks
type TaskPayload struct {
	ReportID string `json:"report_id,omitempty"`
}

// NewGenerateReportTask creates a task to build a pending report
func NewGenerateReportTask(reportID string) (*asynq.Task, error) {
	payload, err := json.Marshal(TaskPayload{
		ReportID: reportID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeGenerateReport, payload), nil
}

// NewCaptureAnalyticsTask creates a task to store an analytics snapshot
func NewCaptureAnalyticsTask() *asynq.Task {
	return asynq.NewTask(TypeCaptureAnalytics, nil)
}

// NewPurgeRefreshTokensTask creates a task to delete dead refresh tokens
func NewPurgeRefreshTokensTask() *asynq.Task {
	return asynq.NewTask(TypePurgeRefreshTokens, nil)
}

// ParseTaskPayload parses task payload from Asynq task
func ParseTaskPayload(task *asynq.Task) (TaskPayload, error) {
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
