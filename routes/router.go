package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/memorybook/memorybook/config"
	"github.com/memorybook/memorybook/controllers"
	"github.com/memorybook/memorybook/middleware"
	"github.com/memorybook/memorybook/services"
	"github.com/memorybook/memorybook/storage"
	"github.com/memorybook/memorybook/utils"
	"github.com/memorybook/memorybook/views"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Config      config.AppConfig
	DB          *gorm.DB
	Submissions *services.SubmissionService
	Listing     *services.ListingService
	Gate        *services.PasswordGate
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file when GIN_PATH is set
	accessLog := utils.Logger
	if cfg.GinPath != "" {
		gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
		if err != nil {
			utils.Sugar.Warnf("gin access log falls back to the app logger: %v", err)
		} else {
			accessLog = gl
		}
	}
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, false))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	r.Use(middleware.PageViewRecorder(d.DB, "/", "/admin"))

	r.SetHTMLTemplate(views.Templates())

	if cfg.BlobBackend == "local" {
		r.Static(storage.LocalBlobRoute, cfg.LocalBlobDir)
	}

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	secret := []byte(cfg.SessionSecret)
	secure := cfg.SecureCookies()

	memoryController := controllers.NewMemoryController(d.Submissions, cfg.MaxPhotoBytes())
	adminController := controllers.NewAdminController(d.Gate, d.Listing, secret, secure)
	statsController := controllers.NewStatsController(d.DB)
	configController := controllers.NewConfigController(cfg)

	r.GET("/", memoryController.ShowForm)
	r.POST("/", memoryController.SubmitForm)

	r.GET("/admin", adminController.ShowGallery)
	r.POST("/admin/login", adminController.Login)
	r.POST("/admin/logout", adminController.Logout)

	api := r.Group("/api")
	api.POST("/memories", memoryController.CreateMemory)
	api.GET("/config/form", configController.GetFormConfig)
	api.POST("/admin/verify", adminController.Verify)

	protected := api.Group("/admin")
	protected.Use(middleware.AdminRequired(secret, secure))
	protected.GET("/memories", adminController.ListMemories)
	protected.GET("/stats", statsController.GetStats)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.String(http.StatusNotFound, "page not found")
	})

	return r
}
