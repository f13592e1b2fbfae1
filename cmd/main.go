package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nestlingapp/nestling-backend/internal/db"
	"github.com/nestlingapp/nestling-backend/internal/handlers"
	"github.com/nestlingapp/nestling-backend/internal/logger"
	"github.com/nestlingapp/nestling-backend/internal/middleware"
	"github.com/nestlingapp/nestling-backend/internal/observability"
	"github.com/nestlingapp/nestling-backend/internal/repos"
	"github.com/nestlingapp/nestling-backend/internal/server"
	"github.com/nestlingapp/nestling-backend/internal/services"
	"github.com/nestlingapp/nestling-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	port := utils.GetEnv("PORT", "8080", log)
	allowedOrigins := utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log)

	// Observability
	shutdownTracing := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "nestling-backend",
		Environment: os.Getenv("APP_ENV"),
		Version:     os.Getenv("APP_VERSION"),
	})
	if shutdownTracing != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				log.Warn("Tracing shutdown failed", "error", err)
			}
		}()
	}
	observability.InitMetrics(log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	childRepo := repos.NewChildRepo(thePG, log)
	templateRepo := repos.NewMilestoneTemplateRepo(thePG, log)
	progressRepo := repos.NewMilestoneProgressRepo(thePG, log)
	tipRepo := repos.NewDailyTipRepo(thePG, log)
	articleRepo := repos.NewArticleRepo(thePG, log)
	activityLogRepo := repos.NewActivityLogRepo(thePG, log)
	progressStatsRepo := repos.NewProgressStatsRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	activityService := services.NewActivityService(thePG, log, activityLogRepo)
	defer activityService.Close()
	milestoneService := services.NewMilestoneService(thePG, log, templateRepo, progressRepo, childRepo, activityService)
	childService := services.NewChildService(thePG, log, childRepo, milestoneService)
	tipService := services.NewDailyTipService(thePG, log, tipRepo, userRepo, childRepo, activityService)
	recommendationService := services.NewRecommendationService(
		thePG,
		log,
		articleRepo,
		activityLogRepo,
		templateRepo,
		progressRepo,
		tipRepo,
		userRepo,
		childRepo,
		tipService,
	)
	progressService := services.NewProgressService(thePG, log, progressStatsRepo, activityLogRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	childHandler := handlers.NewChildHandler(childService)
	milestoneHandler := handlers.NewMilestoneHandler(milestoneService)
	tipHandler := handlers.NewTipHandler(tipService)
	recommendationHandler := handlers.NewRecommendationHandler(recommendationService)
	progressHandler := handlers.NewProgressHandler(progressService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, jwtSecretKey)

	// Router
	log.Info("Setting up router from main...")
	var origins []string
	if allowedOrigins != "" {
		for _, origin := range strings.Split(allowedOrigins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:        authMiddleware,
		ChildHandler:          childHandler,
		MilestoneHandler:      milestoneHandler,
		TipHandler:            tipHandler,
		RecommendationHandler: recommendationHandler,
		ProgressHandler:       progressHandler,
		AllowedOrigins:        origins,
		ServiceName:           "nestling-backend",
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
