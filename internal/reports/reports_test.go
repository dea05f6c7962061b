package reports

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/authdeck/authdeck/internal/models"
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

func rowValue(content *models.ReportContent, label string) (string, bool) {
	for _, row := range content.Rows {
		if row.Label == label {
			return row.Value, true
		}
	}
	return "", false
}

func TestValid(t *testing.T) {
	for _, typ := range Types() {
		assert.True(t, Valid(typ), typ)
	}
	assert.False(t, Valid("revenue"))
	assert.False(t, Valid(""))
}

func TestGenerate_UnknownType(t *testing.T) {
	db := setupTestDB(t)

	_, err := Generate(context.Background(), db, "revenue", time.Now())
	assert.True(t, errors.Is(err, ErrUnknownReportType))
}

func TestGenerate_UserAnalytics(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	user := models.User{Email: "ada@example.com", PasswordHash: "x", FirstName: "Ada", LastName: "Lovelace"}
	user.CreatedAt = now.Add(-time.Hour)
	require.NoError(t, db.Create(&user).Error)

	content, err := Generate(context.Background(), db, TypeUserAnalytics, now)
	require.NoError(t, err)

	assert.Equal(t, "User Analytics", content.Title)
	assert.Equal(t, models.ReportRow{Label: "Total users", Value: "1"}, content.Rows[0])

	rate, ok := rowValue(content, "Conversion rate")
	require.True(t, ok)
	assert.Equal(t, "0.0%", rate)

	today, ok := rowValue(content, "Sign-ups 2026-03-10")
	require.True(t, ok)
	assert.Equal(t, "1", today)
}

func TestGenerate_Performance(t *testing.T) {
	db := setupTestDB(t)

	user := models.User{Email: "ada@example.com", PasswordHash: "x", FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, db.Create(&user).Error)

	started := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for _, d := range []time.Duration{time.Second, 3 * time.Second} {
		completed := started.Add(d)
		report := models.Report{UserID: user.ID, Type: TypeUserAnalytics, Status: models.ReportReady, CompletedAt: &completed}
		report.CreatedAt = started
		require.NoError(t, db.Create(&report).Error)
	}
	require.NoError(t, db.Create(&models.Report{UserID: user.ID, Type: TypePerformance, Status: models.ReportPending}).Error)

	content, err := Generate(context.Background(), db, TypePerformance, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Performance Report", content.Title)

	tests := map[string]string{
		"Reports ready":           "2",
		"Reports pending":         "1",
		"Average generation time": "2s",
		"Analytics snapshots":     "0",
	}
	for label, want := range tests {
		got, ok := rowValue(content, label)
		if assert.True(t, ok, label) {
			assert.Equal(t, want, got, label)
		}
	}

	_, ok := rowValue(content, "Worker goroutines")
	assert.True(t, ok)
}
