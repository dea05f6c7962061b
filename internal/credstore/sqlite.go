package credstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// credentialSlot is one row of the credential_slots table
type credentialSlot struct {
	Key       string    `gorm:"primaryKey;type:varchar(64)"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (credentialSlot) TableName() string {
	return "credential_slots"
}

// SQLiteStore keeps slots in a local sqlite database through gorm
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// migrates the slot table.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open credentials database: %w", err)
	}

	return NewSQLiteStoreFromDB(db)
}

// NewSQLiteStoreFromDB wraps an existing gorm handle
func NewSQLiteStoreFromDB(db *gorm.DB) (*SQLiteStore, error) {
	if err := db.AutoMigrate(&credentialSlot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate credential slots: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(key string) (string, error) {
	var slot credentialSlot
	if err := s.db.Where("key = ?", key).First(&slot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get credential slot[%s]: %w", key, err)
	}
	return slot.Value, nil
}

func (s *SQLiteStore) Set(key, value string) error {
	slot := credentialSlot{Key: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&slot).Error
	if err != nil {
		return fmt.Errorf("failed to set credential slot[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(key string) error {
	if err := s.db.Where("key = ?", key).Delete(&credentialSlot{}).Error; err != nil {
		return fmt.Errorf("failed to delete credential slot[%s]: %w", key, err)
	}
	return nil
}

// Close releases the underlying database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
