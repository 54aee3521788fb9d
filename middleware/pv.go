package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/memorybook/memorybook/models"
	"github.com/memorybook/memorybook/utils"
)

// PageViewRecorder counts successful GETs of the given pages per day.
func PageViewRecorder(db *gorm.DB, pages ...string) gin.HandlerFunc {
	tracked := make(map[string]struct{}, len(pages))
	for _, p := range pages {
		tracked[p] = struct{}{}
	}
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}
		path := c.Request.URL.Path
		if _, ok := tracked[path]; !ok {
			return
		}

		now := time.Now().UTC()
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

		// Atomic upsert to avoid duplicate key errors under concurrency
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": now}),
		}).Create(&models.PageView{Date: day, Path: path, Count: 1}).Error
		if err != nil {
			utils.Sugar.Debugf("page view not recorded for %s: %v", path, err)
		}
	}
}
