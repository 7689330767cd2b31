package routes

import (
	"net/http"

	"classifieds_backend/internal/handlers"
	"classifieds_backend/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Options - служебные маршруты помимо API
type Options struct {
	// UploadsURL/UploadsDir - раздача локального хранилища; пусто - не раздаём
	UploadsURL string
	UploadsDir string
	Metrics    bool
}

// RegisterRoutes регистрирует все HTTP маршруты.
func RegisterRoutes(ginRouter *gin.Engine, db *gorm.DB, appHandlers *handlers.AppHandlers, opts Options) {
	ginRouter.GET("/health", healthHandler(db))

	if opts.Metrics {
		ginRouter.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if opts.UploadsURL != "" && opts.UploadsDir != "" {
		ginRouter.Static(opts.UploadsURL, opts.UploadsDir)
		logger.Info("Serving local uploads", "url", opts.UploadsURL, "dir", opts.UploadsDir)
	}

	// Регистрация HTTP API v1
	api := ginRouter.Group("/api/v1")
	appHandlers.RegisterRoutes(api)
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
