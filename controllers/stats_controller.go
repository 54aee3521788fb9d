package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/memorybook/memorybook/models"
	"github.com/memorybook/memorybook/storage"
	"github.com/memorybook/memorybook/utils"
)

// StatsController reports memory and page view counts to the admin.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate statistics for the memory book.
func (s *StatsController) GetStats(ctx *gin.Context) {
	reqCtx := ctx.Request.Context()

	memoryCount, err := storage.NewGormRecordStore(s.db).Count(reqCtx)
	if err != nil {
		// Fallback to 0 instead of failing the whole endpoint
		utils.Sugar.Warnf("stats: %v", err)
		memoryCount = 0
	}

	var photoCount int64
	if err := s.db.WithContext(reqCtx).Model(&models.Memory{}).
		Where("photo_url IS NOT NULL AND photo_url <> ''").
		Count(&photoCount).Error; err != nil {
		photoCount = 0
	}

	views, err := storage.PageViewTotals(reqCtx, s.db)
	if err != nil {
		utils.Sugar.Warnf("stats: %v", err)
		views = []models.PathViews{}
	}

	var todayViews int64
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if err := s.db.WithContext(reqCtx).Model(&models.PageView{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count),0)").
		Scan(&todayViews).Error; err != nil {
		todayViews = 0
	}

	utils.Success(ctx, gin.H{
		"memory_count":     memoryCount,
		"photo_count":      photoCount,
		"page_views":       views,
		"page_views_today": todayViews,
	})
}
