package api

import (
	"github.com/chaza/pricewatch/internal/api/handler"
	"github.com/chaza/pricewatch/internal/api/middleware"
	"github.com/chaza/pricewatch/internal/config"
	"github.com/chaza/pricewatch/internal/repository"
	"github.com/chaza/pricewatch/internal/scheduler"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	db *gorm.DB,
	sched *scheduler.Scheduler,
	cfg *config.ServerConfig,
) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	healthHandler := handler.NewHealthHandler(db)
	jobsHandler := handler.NewJobsHandler(sched, repository.NewScrapingJobRepository(db))

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Scheduled tasks
		v1.GET("/jobs", jobsHandler.List)
		v1.POST("/jobs/:name/run", jobsHandler.Run)
		v1.POST("/jobs/:name/start", jobsHandler.Start)
		v1.POST("/jobs/:name/stop", jobsHandler.Stop)

		// Reconciliation run records
		v1.GET("/runs", jobsHandler.RecentRuns)
	}

	return r
}
