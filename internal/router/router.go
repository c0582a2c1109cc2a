// internal/router/router.go
package router

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/javajoker/loan-manager/internal/config"
	"github.com/javajoker/loan-manager/internal/handlers"
	"github.com/javajoker/loan-manager/internal/metrics"
	"github.com/javajoker/loan-manager/internal/middleware"
	"github.com/javajoker/loan-manager/internal/services"
	"github.com/javajoker/loan-manager/internal/utils"
)

// Server is the wired HTTP engine plus the pieces main has to start and stop.
type Server struct {
	Engine    *gin.Engine
	Analytics *services.AnalyticsService

	limiter *middleware.RateLimiter
}

// Close stops background work started by Initialize.
func (s *Server) Close() {
	s.limiter.Stop()
}

// Initialize wires services, handlers and routes. rdb may be nil, in which
// case Idempotency-Key headers are ignored.
func Initialize(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Server {
	// Initialize services
	auditService := services.NewAuditService(db)
	applicationService := services.NewApplicationService(db, auditService)
	dashboardService := services.NewDashboardService(db)
	analyticsService := services.NewAnalyticsService(db, dashboardService)

	// Initialize handlers
	applicationHandler := handlers.NewApplicationHandler(applicationService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, analyticsService)
	healthHandler := handlers.NewHealthHandler()

	r := gin.New()

	// Global middleware
	limiter, rateLimit := middleware.RateLimit(cfg.RateLimit)
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.ClientURL))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	createGuards := []gin.HandlerFunc{}
	if rdb != nil {
		ttl := time.Duration(cfg.Redis.IdempotencyTTL) * time.Second
		createGuards = append(createGuards, middleware.Idempotency(rdb, ttl))
	}

	api := r.Group("/api")
	api.Use(rateLimit)
	{
		api.GET("/health", healthHandler.Health)

		applications := api.Group("/applications")
		{
			applications.POST("", append(createGuards, applicationHandler.CreateApplication)...)
			applications.GET("", applicationHandler.GetApplications)
			applications.GET("/:id", applicationHandler.GetApplication)
			applications.PUT("/:id", applicationHandler.UpdateApplication)
			applications.PATCH("/:id/status", applicationHandler.UpdateApplicationStatus)
			applications.DELETE("/:id", applicationHandler.DeleteApplication)
			applications.GET("/:id/history", applicationHandler.GetApplicationHistory)
		}

		api.GET("/applicants/:email/applications", applicationHandler.GetApplicationsByEmail)

		dashboard := api.Group("/dashboard")
		{
			dashboard.GET("/stats", dashboardHandler.GetDashboardStats)
			dashboard.GET("/loan-types", dashboardHandler.GetLoanTypeStats)
			dashboard.GET("/monthly", dashboardHandler.GetMonthlyStats)
			dashboard.GET("/approval-trends", dashboardHandler.GetApprovalTrends)
			dashboard.GET("/top-metrics", dashboardHandler.GetTopMetrics)
			dashboard.GET("/snapshots", dashboardHandler.GetSnapshots)
		}
	}

	if cfg.Server.StaticDir != "" {
		r.NoRoute(spaFallback(cfg.Server.StaticDir))
	} else {
		r.GET("/", healthHandler.Index)
		r.NoRoute(func(c *gin.Context) {
			utils.NotFoundResponse(c, "Route not found")
		})
	}

	return &Server{
		Engine:    r,
		Analytics: analyticsService,
		limiter:   limiter,
	}
}

// spaFallback serves files from dir and index.html for any other non-API path.
func spaFallback(dir string) gin.HandlerFunc {
	index := filepath.Join(dir, "index.html")
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || path == "/api" {
			utils.NotFoundResponse(c, "Route not found")
			return
		}

		file := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+path)))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(index)
	}
}
