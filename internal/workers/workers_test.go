package workers

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/authdeck/authdeck/internal/models"
	"github.com/authdeck/authdeck/internal/reports"
	"github.com/authdeck/authdeck/internal/tasks"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.sqlite")), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{Email: "ada@example.com", PasswordHash: "x", FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createReport(t *testing.T, db *gorm.DB, userID, reportType, status string) models.Report {
	t.Helper()
	report := models.Report{UserID: userID, Type: reportType, Status: status}
	require.NoError(t, db.Create(&report).Error)
	return report
}

func reportTask(t *testing.T, id string) *asynq.Task {
	t.Helper()
	task, err := tasks.NewGenerateReportTask(id)
	require.NoError(t, err)
	return task
}

func TestHandleGenerateReport_Success(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db)
	report := createReport(t, db, user.ID, reports.TypePerformance, models.ReportPending)

	err := HandleGenerateReport(context.Background(), reportTask(t, report.ID), db, zerolog.Nop())
	require.NoError(t, err)

	var stored models.Report
	require.NoError(t, models.FindByID(db, report.ID, &stored))
	assert.Equal(t, models.ReportReady, stored.Status)
	require.NotNil(t, stored.Content)
	assert.Equal(t, "Performance Report", stored.Content.Title)
	assert.NotEmpty(t, stored.Content.Rows)
	assert.NotNil(t, stored.CompletedAt)
	assert.Empty(t, stored.Error)
}

func TestHandleGenerateReport_UnknownTypeFails(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db)
	report := createReport(t, db, user.ID, "revenue", models.ReportPending)

	err := HandleGenerateReport(context.Background(), reportTask(t, report.ID), db, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
	assert.True(t, errors.Is(err, reports.ErrUnknownReportType))

	var stored models.Report
	require.NoError(t, models.FindByID(db, report.ID, &stored))
	assert.Equal(t, models.ReportFailed, stored.Status)
	assert.Contains(t, stored.Error, "unknown report type")
	assert.NotNil(t, stored.CompletedAt)
	assert.Nil(t, stored.Content)
}

func TestHandleGenerateReport_Skips(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db)

	t.Run("missing report", func(t *testing.T) {
		err := HandleGenerateReport(context.Background(), reportTask(t, "01HZZZZZZZZZZZZZZZZZZZZZZZ"), db, zerolog.Nop())
		assert.True(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("malformed payload", func(t *testing.T) {
		task := asynq.NewTask(tasks.TypeGenerateReport, []byte("{"))
		err := HandleGenerateReport(context.Background(), task, db, zerolog.Nop())
		assert.True(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("already processed", func(t *testing.T) {
		report := createReport(t, db, user.ID, reports.TypeUserAnalytics, models.ReportFailed)

		err := HandleGenerateReport(context.Background(), reportTask(t, report.ID), db, zerolog.Nop())
		require.NoError(t, err)

		var stored models.Report
		require.NoError(t, models.FindByID(db, report.ID, &stored))
		assert.Equal(t, models.ReportFailed, stored.Status)
		assert.Nil(t, stored.Content)
	})
}

func TestHandleCaptureAnalytics(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db)

	require.NoError(t, HandleCaptureAnalytics(context.Background(), tasks.NewCaptureAnalyticsTask(), db, zerolog.Nop()))

	var snaps []models.AnalyticsSnapshot
	require.NoError(t, db.Find(&snaps).Error)
	require.Len(t, snaps, 1)
	assert.Equal(t, int64(1), snaps[0].TotalUsers)
	assert.Len(t, snaps[0].UserGrowth, 7)
}

func TestPurgeRefreshTokens(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	recentlyRevoked := now.Add(-time.Hour)
	longRevoked := now.Add(-48 * time.Hour)

	tokens := []models.RefreshToken{
		{UserID: user.ID, TokenHash: "live", ExpiresAt: now.Add(time.Hour)},
		{UserID: user.ID, TokenHash: "expired", ExpiresAt: now.Add(-time.Minute)},
		{UserID: user.ID, TokenHash: "recently-revoked", ExpiresAt: now.Add(time.Hour), RevokedAt: &recentlyRevoked},
		{UserID: user.ID, TokenHash: "long-revoked", ExpiresAt: now.Add(time.Hour), RevokedAt: &longRevoked},
	}
	require.NoError(t, db.Create(&tokens).Error)

	n, err := PurgeRefreshTokens(context.Background(), db, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var remaining []string
	require.NoError(t, db.Model(&models.RefreshToken{}).Order("token_hash").Pluck("token_hash", &remaining).Error)
	assert.Equal(t, []string{"live", "recently-revoked"}, remaining)
}

type recordingEnqueuer struct {
	mu    sync.Mutex
	types []string
	err   error
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, task.Type())
	if r.err != nil {
		return nil, r.err
	}
	return &asynq.TaskInfo{ID: "id", Type: task.Type()}, nil
}

func TestStartScheduler(t *testing.T) {
	enqueuer := &recordingEnqueuer{}

	c, err := StartScheduler("*/15 * * * *", enqueuer, zerolog.Nop())
	require.NoError(t, err)
	defer c.Stop()

	entries := c.Entries()
	require.Len(t, entries, 2)

	// Run the jobs directly rather than waiting for the schedule
	for _, entry := range entries {
		entry.Job.Run()
	}

	enqueuer.mu.Lock()
	defer enqueuer.mu.Unlock()
	assert.ElementsMatch(t, []string{tasks.TypeCaptureAnalytics, tasks.TypePurgeRefreshTokens}, enqueuer.types)
}

func TestStartScheduler_InvalidSchedule(t *testing.T) {
	_, err := StartScheduler("every minute", &recordingEnqueuer{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestEnqueue_LogsFailure(t *testing.T) {
	enqueuer := &recordingEnqueuer{err: errors.New("redis down")}

	// Must not panic on a nil TaskInfo
	enqueue(enqueuer, tasks.NewCaptureAnalyticsTask(), zerolog.Nop())
	assert.Equal(t, []string{tasks.TypeCaptureAnalytics}, enqueuer.types)
}
