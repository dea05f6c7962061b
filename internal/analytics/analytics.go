// Package analytics computes the dashboard figures from the user, session
// and report tables.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/authdeck/authdeck/internal/models"
)

const (
	activeWindow = 30 * 24 * time.Hour
	newWindow    = 7 * 24 * time.Hour
	growthDays   = 7
	dateLayout   = "2006-01-02"
)

// ErrNoSnapshot is returned by Latest before the first capture
var ErrNoSnapshot = errors.New("no analytics snapshot captured yet")

// Compute calculates the figures as of now without storing them.
// Active users are users issued a refresh token within 30 days; the
// conversion rate is the share of users who generated a report.
func Compute(ctx context.Context, db *gorm.DB, now time.Time) (*models.AnalyticsSnapshot, error) {
	db = db.WithContext(ctx)
	now = now.UTC()

	snap := &models.AnalyticsSnapshot{}
	snap.CreatedAt = now

	if err := db.Model(&models.User{}).Count(&snap.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	if err := db.Model(&models.RefreshToken{}).
		Where("created_at >= ?", now.Add(-activeWindow)).
		Distinct("user_id").
		Count(&snap.ActiveUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	if err := db.Model(&models.User{}).
		Where("created_at >= ?", now.Add(-newWindow)).
		Count(&snap.NewUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count new users: %w", err)
	}

	var converted int64
	if err := db.Model(&models.Report{}).Distinct("user_id").Count(&converted).Error; err != nil {
		return nil, fmt.Errorf("failed to count reporting users: %w", err)
	}
	if snap.TotalUsers > 0 {
		snap.ConversionRate = float64(converted) * 100 / float64(snap.TotalUsers)
	}

	growth, err := userGrowth(db, now)
	if err != nil {
		return nil, err
	}
	snap.UserGrowth = growth

	return snap, nil
}

// userGrowth counts sign-ups per UTC day for the last growthDays days,
// oldest first, including days with none
func userGrowth(db *gorm.DB, now time.Time) ([]models.GrowthPoint, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(growthDays - 1))

	var createdAt []time.Time
	if err := db.Model(&models.User{}).
		Where("created_at >= ?", start).
		Pluck("created_at", &createdAt).Error; err != nil {
		return nil, fmt.Errorf("failed to load sign-up dates: %w", err)
	}

	counts := make(map[string]int64, growthDays)
	for _, t := range createdAt {
		counts[t.UTC().Format(dateLayout)]++
	}

	points := make([]models.GrowthPoint, growthDays)
	for i := range points {
		day := start.AddDate(0, 0, i).Format(dateLayout)
		points[i] = models.GrowthPoint{Date: day, Count: counts[day]}
	}
	return points, nil
}

// Capture computes the figures and stores them as a snapshot
func Capture(ctx context.Context, db *gorm.DB, now time.Time) (*models.AnalyticsSnapshot, error) {
	snap, err := Compute(ctx, db, now)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Create(snap).Error; err != nil {
		return nil, fmt.Errorf("failed to store analytics snapshot: %w", err)
	}
	return snap, nil
}

// Latest returns the most recent snapshot
func Latest(ctx context.Context, db *gorm.DB) (*models.AnalyticsSnapshot, error) {
	var snap models.AnalyticsSnapshot
	err := db.WithContext(ctx).Order("created_at DESC").First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analytics snapshot: %w", err)
	}
	return &snap, nil
}
