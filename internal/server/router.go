package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/nestlingapp/nestling-backend/internal/handlers"
	"github.com/nestlingapp/nestling-backend/internal/middleware"
	"github.com/nestlingapp/nestling-backend/internal/observability"
)

type RouterConfig struct {
	AuthMiddleware        *middleware.AuthMiddleware
	ChildHandler          *handlers.ChildHandler
	MilestoneHandler      *handlers.MilestoneHandler
	TipHandler            *handlers.TipHandler
	RecommendationHandler *handlers.RecommendationHandler
	ProgressHandler       *handlers.ProgressHandler
	AllowedOrigins        []string
	ServiceName           string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:8081"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "nestling-backend"
	}
	router.Use(otelgin.Middleware(serviceName))
	router.Use(metricsMiddleware())

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Children
	api.GET("/children", cfg.ChildHandler.ListChildren)
	api.POST("/children", cfg.ChildHandler.CreateChild)
	api.GET("/children/:childID/milestones", cfg.MilestoneHandler.ChildMilestones)
	// Milestones
	api.PUT("/milestones/:templateID/complete", cfg.MilestoneHandler.CompleteMilestone)
	api.PUT("/milestones/:templateID/uncomplete", cfg.MilestoneHandler.UncompleteMilestone)
	api.GET("/milestones/stats", cfg.MilestoneHandler.Stats)
	// Recommendations
	api.GET("/next-steps", cfg.RecommendationHandler.NextSteps)
	api.GET("/articles/recommended", cfg.RecommendationHandler.Articles)
	// Tips
	api.GET("/tips/today", cfg.TipHandler.TodaysTip)
	api.GET("/tips/recent", cfg.TipHandler.RecentTips)
	api.POST("/tips/:tipID/complete", cfg.TipHandler.CompleteTip)
	api.POST("/tips/:tipID/skip", cfg.TipHandler.SkipTip)
	// Progress
	api.GET("/progress/weekly", cfg.ProgressHandler.WeeklyProgress)
	api.POST("/progress/recalculate", cfg.ProgressHandler.RecalculateWeek)

	return router
}

// metricsMiddleware feeds the best-effort request counters; a disabled metrics
// backend makes this a no-op.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		observability.Current().IncrAPIRequest(c.Request.Context(), c.FullPath(), c.Writer.Status())
	}
}
