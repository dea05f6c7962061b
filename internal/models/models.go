package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Config represents the global server configuration
// This is a singleton model (only one row should exist)
type Config struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Auto-generated on first start (64 hex chars)
}

// User represents a registered account
type User struct {
	BaseModel
	Email        string    `json:"email" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	FirstName    string    `json:"firstName" gorm:"not null"`
	LastName     string    `json:"lastName" gorm:"not null"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// RefreshToken is an issued refresh token. Only the SHA-256 hash is stored;
// a token is usable once, until it is revoked by rotation or expires.
type RefreshToken struct {
	BaseModel
	UserID    string     `json:"userId" gorm:"not null;index"`
	TokenHash string     `json:"-" gorm:"type:varchar(64);not null;uniqueIndex"`
	ExpiresAt time.Time  `json:"expiresAt" gorm:"not null"`
	RevokedAt *time.Time `json:"revokedAt"`

	// Relationships
	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Report statuses
const (
	ReportPending = "pending"
	ReportReady   = "ready"
	ReportFailed  = "failed"
)

// ReportRow is one labelled figure in a report
type ReportRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ReportContent is the generated body of a report
type ReportContent struct {
	Title string      `json:"title"`
	Rows  []ReportRow `json:"rows"`
}

// Report is a report requested by a user and generated by the worker
type Report struct {
	BaseModel
	UserID      string         `json:"-" gorm:"not null;index"`
	Type        string         `json:"type" gorm:"not null"`
	Status      string         `json:"status" gorm:"not null;default:pending"`
	Content     *ReportContent `json:"content,omitempty" gorm:"serializer:json"`
	Error       string         `json:"error,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`

	// Relationships
	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// GrowthPoint is the number of sign-ups on one UTC day
type GrowthPoint struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}

// AnalyticsSnapshot is a captured set of dashboard figures
type AnalyticsSnapshot struct {
	BaseModel
	TotalUsers     int64         `json:"totalUsers"`
	ActiveUsers    int64         `json:"activeUsers"` // signed in within 30 days
	NewUsers       int64         `json:"newUsers"`    // registered within 7 days
	ConversionRate float64       `json:"conversionRate"`
	UserGrowth     []GrowthPoint `json:"userGrowth" gorm:"serializer:json"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&Config{}, &User{}, &RefreshToken{}, &Report{}, &AnalyticsSnapshot{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
