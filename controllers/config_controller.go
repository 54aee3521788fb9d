package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/memorybook/memorybook/config"
	"github.com/memorybook/memorybook/utils"
)

// ConfigController serves the form limits to clients that build their own form.
type ConfigController struct {
	cfg config.AppConfig
}

func NewConfigController(cfg config.AppConfig) *ConfigController { return &ConfigController{cfg: cfg} }

// GetFormConfig returns the accepted year range and photo size limit.
func (c *ConfigController) GetFormConfig(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"year_met_min":    c.cfg.YearMetMin,
		"year_met_max":    c.cfg.YearMetMax,
		"max_photo_mb":    c.cfg.MaxPhotoMB,
		"max_photo_bytes": c.cfg.MaxPhotoBytes(),
	})
}
