package app

import (
	"gorm.io/gorm"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/repos"
)

type Repos struct {
	Book             repos.BookRepo
	BookInteraction  repos.BookInteractionRepo
	ShelfEntry       repos.ShelfEntryRepo
	BookSimilarity   repos.BookSimilarityRepo
	Recommendation   repos.RecommendationRepo
	TrendingSnapshot repos.TrendingSnapshotRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Book:             repos.NewBookRepo(db, log),
		BookInteraction:  repos.NewBookInteractionRepo(db, log),
		ShelfEntry:       repos.NewShelfEntryRepo(db, log),
		BookSimilarity:   repos.NewBookSimilarityRepo(db, log),
		Recommendation:   repos.NewRecommendationRepo(db, log),
		TrendingSnapshot: repos.NewTrendingSnapshotRepo(db, log),
	}
}
