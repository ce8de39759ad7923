package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cgbookstore/bookrec-backend/internal/handlers"
	"github.com/cgbookstore/bookrec-backend/internal/middleware"
	"github.com/cgbookstore/bookrec-backend/internal/utils"
)

type RouterConfig struct {
	HealthHandler         *handlers.HealthHandler
	RecommendationHandler *handlers.RecommendationHandler
	JobsHandler           *handlers.JobsHandler
	UserMiddleware        *middleware.UserMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	origins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:8000", nil), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-User-ID", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/books/:id/similar", cfg.RecommendationHandler.GetSimilarBooks)

		user := api.Group("/")
		user.Use(cfg.UserMiddleware.RequireUser())
		user.GET("/recommendations", cfg.RecommendationHandler.GetRecommendations)
		user.POST("/recommendations/click", cfg.RecommendationHandler.RecordClick)

		api.POST("/admin/jobs/similarity", cfg.JobsHandler.TriggerSimilarity)
		api.POST("/admin/jobs/trending", cfg.JobsHandler.TriggerTrending)
	}

	return router
}
