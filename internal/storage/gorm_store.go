package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"servicepulse/backend/internal/models"
)

// GormStore keeps each collection as one row of the collections table.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore migrates the collections table and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&models.CollectionRecord{}); err != nil {
		return nil, fmt.Errorf("migrate collections: %w", err)
	}
	return &GormStore{DB: db}, nil
}

func (s *GormStore) Load(ctx context.Context, c Collection) ([]byte, bool, error) {
	var rec models.CollectionRecord
	err := s.DB.WithContext(ctx).Where("name = ?", string(c)).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(rec.Content), true, nil
}

// Save upserts the row; UpdatedAt moves even when content is unchanged.
func (s *GormStore) Save(ctx context.Context, c Collection, raw []byte) error {
	rec := models.CollectionRecord{
		Name:      string(c),
		Content:   datatypes.JSON(raw),
		UpdatedAt: time.Now(),
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(&rec).Error
}
