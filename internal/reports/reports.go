// Package reports builds the content of user-requested reports.
package reports

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"gorm.io/gorm"

	"github.com/authdeck/authdeck/internal/analytics"
	"github.com/authdeck/authdeck/internal/models"
)

// Report types
const (
	TypeUserAnalytics = "user-analytics"
	TypePerformance   = "performance-report"
)

// ErrUnknownReportType is returned for a type Generate cannot build
var ErrUnknownReportType = errors.New("unknown report type")

// Types returns the report types in display order
func Types() []string {
	return []string{TypeUserAnalytics, TypePerformance}
}

// Valid reports whether t is a known report type
func Valid(t string) bool {
	return t == TypeUserAnalytics || t == TypePerformance
}

// Generate builds the content for a report as of now
func Generate(ctx context.Context, db *gorm.DB, reportType string, now time.Time) (*models.ReportContent, error) {
	switch reportType {
	case TypeUserAnalytics:
		return userAnalytics(ctx, db, now)
	case TypePerformance:
		return performance(ctx, db)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownReportType, reportType)
	}
}

func userAnalytics(ctx context.Context, db *gorm.DB, now time.Time) (*models.ReportContent, error) {
	snap, err := analytics.Compute(ctx, db, now)
	if err != nil {
		return nil, err
	}

	content := &models.ReportContent{
		Title: "User Analytics",
		Rows: []models.ReportRow{
			{Label: "Total users", Value: fmt.Sprint(snap.TotalUsers)},
			{Label: "Active users (30 days)", Value: fmt.Sprint(snap.ActiveUsers)},
			{Label: "New users (7 days)", Value: fmt.Sprint(snap.NewUsers)},
			{Label: "Conversion rate", Value: fmt.Sprintf("%.1f%%", snap.ConversionRate)},
		},
	}
	for _, p := range snap.UserGrowth {
		content.Rows = append(content.Rows, models.ReportRow{Label: "Sign-ups " + p.Date, Value: fmt.Sprint(p.Count)})
	}
	return content, nil
}

func performance(ctx context.Context, db *gorm.DB) (*models.ReportContent, error) {
	db = db.WithContext(ctx)

	var byStatus []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&models.Report{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}

	var finished []models.Report
	if err := db.Select("created_at", "completed_at").
		Where("status = ? AND completed_at IS NOT NULL", models.ReportReady).
		Find(&finished).Error; err != nil {
		return nil, fmt.Errorf("failed to load finished reports: %w", err)
	}

	var snapshots int64
	if err := db.Model(&models.AnalyticsSnapshot{}).Count(&snapshots).Error; err != nil {
		return nil, fmt.Errorf("failed to count snapshots: %w", err)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	content := &models.ReportContent{Title: "Performance Report"}
	for _, s := range byStatus {
		content.Rows = append(content.Rows, models.ReportRow{Label: "Reports " + s.Status, Value: fmt.Sprint(s.Count)})
	}
	content.Rows = append(content.Rows,
		models.ReportRow{Label: "Average generation time", Value: averageDuration(finished).String()},
		models.ReportRow{Label: "Analytics snapshots", Value: fmt.Sprint(snapshots)},
		models.ReportRow{Label: "Worker goroutines", Value: fmt.Sprint(runtime.NumGoroutine())},
		models.ReportRow{Label: "Worker heap in use", Value: fmt.Sprintf("%.1f MiB", float64(mem.HeapInuse)/(1<<20))},
	)
	return content, nil
}

func averageDuration(reports []models.Report) time.Duration {
	if len(reports) == 0 {
		return 0
	}
	var total time.Duration
	for _, r := range reports {
		total += r.CompletedAt.Sub(r.CreatedAt)
	}
	return (total / time.Duration(len(reports))).Round(time.Millisecond)
}
