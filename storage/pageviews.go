package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/memorybook/memorybook/models"
)

// PageViewTotals sums recorded views per path across all days.
func PageViewTotals(ctx context.Context, db *gorm.DB) ([]models.PathViews, error) {
	rows := []models.PathViews{}
	err := db.WithContext(ctx).Model(&models.PageView{}).
		Select("path, COALESCE(SUM(count), 0) AS count").
		Group("path").
		Order("path").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sum page views: %w", err)
	}
	return rows, nil
}
