package app

import (
	"github.com/cgbookstore/bookrec-backend/internal/cache"
	"github.com/cgbookstore/bookrec-backend/internal/jobs"
	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/recommend"
	"github.com/cgbookstore/bookrec-backend/internal/services"
)

type Services struct {
	Engine            *recommend.Engine
	Recommendation    services.RecommendationService
	Suggestions       services.SuggestionClient
	SimilarityRebuild *jobs.SimilarityRebuild
	TrendingRebuild   *jobs.TrendingRebuild
	JobWorker         *jobs.Worker
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos) Services {
	log.Info("Wiring services...")

	store, err := cache.NewRedisStore(log)
	if err != nil {
		log.Warn("Redis unavailable, using in-process cache", "error", err)
		store = cache.NewMemoryStore()
	}

	engine := recommend.NewEngine(log)
	exclusion := recommend.NewExclusion(reposet.ShelfEntry, reposet.BookInteraction, reposet.Book, log)
	collaborative := recommend.NewCollaborative(reposet.BookInteraction, reposet.ShelfEntry, reposet.Book, exclusion, log)
	content := recommend.NewContentBased(engine, reposet.BookInteraction, reposet.ShelfEntry, reposet.Book, reposet.BookSimilarity, exclusion, log)
	recCache := recommend.NewRecommendationCache(store, reposet.ShelfEntry, reposet.BookInteraction, cfg.CacheTTL, log)

	suggestions := services.NewSuggestionClient(log)

	recommendation := services.NewRecommendationService(services.RecommendationServiceConfig{
		Log:             log,
		Engine:          engine,
		Collaborative:   collaborative,
		Content:         content,
		Exclusion:       exclusion,
		Cache:           recCache,
		Weights:         cfg.Weights,
		Suggestions:     suggestions,
		BookRepo:        reposet.Book,
		InteractionRepo: reposet.BookInteraction,
		RecRepo:         reposet.Recommendation,
		ResultTTL:       cfg.ResultTTL,
	})

	similarityRebuild := jobs.NewSimilarityRebuild(engine, reposet.Book, reposet.BookSimilarity, log)
	trendingRebuild := jobs.NewTrendingRebuild(engine, reposet.BookInteraction, reposet.TrendingSnapshot, cfg.TrendingWindowDays, log)
	worker := jobs.NewWorker(similarityRebuild, trendingRebuild, reposet.Recommendation, cfg.JobIntervals, log)

	return Services{
		Engine:            engine,
		Recommendation:    recommendation,
		Suggestions:       suggestions,
		SimilarityRebuild: similarityRebuild,
		TrendingRebuild:   trendingRebuild,
		JobWorker:         worker,
	}
}
