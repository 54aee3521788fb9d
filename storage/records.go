package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/memorybook/memorybook/models"
)

// GormRecordStore keeps memories in the "memories" table.
type GormRecordStore struct {
	db *gorm.DB
}

func NewGormRecordStore(db *gorm.DB) *GormRecordStore {
	return &GormRecordStore{db: db}
}

// Insert creates the row. The model hook assigns id and created_at.
func (s *GormRecordStore) Insert(ctx context.Context, m *models.Memory) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

// SelectAll returns every memory, most recent first.
func (s *GormRecordStore) SelectAll(ctx context.Context) ([]models.Memory, error) {
	var out []models.Memory
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("select memories: %w", err)
	}
	return out, nil
}

// Count returns the number of stored memories.
func (s *GormRecordStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Memory{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count memories: %w", err)
	}
	return n, nil
}
