package app

import (
	"github.com/gin-gonic/gin"

	"github.com/cgbookstore/bookrec-backend/internal/handlers"
	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/middleware"
	"github.com/cgbookstore/bookrec-backend/internal/server"
)

type Handlers struct {
	Health         *handlers.HealthHandler
	Recommendation *handlers.RecommendationHandler
	Jobs           *handlers.JobsHandler
}

type Middleware struct {
	User *middleware.UserMiddleware
}

func wireHandlers(log *logger.Logger, reposet Repos, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:         handlers.NewHealthHandler(log, serviceset.Engine, reposet.Book, reposet.BookSimilarity),
		Recommendation: handlers.NewRecommendationHandler(log, serviceset.Recommendation),
		Jobs:           handlers.NewJobsHandler(log, serviceset.SimilarityRebuild, serviceset.TrendingRebuild),
	}
}

func wireMiddleware(log *logger.Logger) Middleware {
	return Middleware{
		User: middleware.NewUserMiddleware(log),
	}
}

func wireRouter(handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		HealthHandler:         handlerset.Health,
		RecommendationHandler: handlerset.Recommendation,
		JobsHandler:           handlerset.Jobs,
		UserMiddleware:        middlewareset.User,
	})
}
