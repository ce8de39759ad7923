package jobs

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/recommend"
	"github.com/cgbookstore/bookrec-backend/internal/repos"
	"github.com/cgbookstore/bookrec-backend/internal/types"
	"github.com/cgbookstore/bookrec-backend/internal/utils"
)

const (
	// similarityEdgesPerBook caps how many neighbor rows each book keeps in
	// the materialized table.
	similarityEdgesPerBook = 20
	defaultRebuildWorkers  = 4
)

// SimilarityRebuild recomputes the TF-IDF vector index over the whole
// catalog, publishes it for the online path, and rewrites the materialized
// per-book neighbor table that serves lookups while no index is resident.
// Runs are idempotent: each pass replaces its own prior output.
type SimilarityRebuild struct {
	engine         *recommend.Engine
	bookRepo       repos.BookRepo
	similarityRepo repos.BookSimilarityRepo
	workers        int
	log            *logger.Logger
}

func NewSimilarityRebuild(engine *recommend.Engine, bookRepo repos.BookRepo, similarityRepo repos.BookSimilarityRepo, baseLog *logger.Logger) *SimilarityRebuild {
	workers := utils.GetEnvAsInt("SIMILARITY_REBUILD_WORKERS", defaultRebuildWorkers, baseLog)
	if workers < 1 {
		workers = 1
	}
	return &SimilarityRebuild{
		engine:         engine,
		bookRepo:       bookRepo,
		similarityRepo: similarityRepo,
		workers:        workers,
		log:            baseLog.With("job", "SimilarityRebuild"),
	}
}

// Run builds and publishes a fresh index, then persists the top neighbors
// per book. The index is published before the table rewrite so the online
// path benefits immediately even if persistence fails partway.
func (j *SimilarityRebuild) Run(ctx context.Context) error {
	started := time.Now()

	books, err := j.bookRepo.GetAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	index := recommend.BuildVectorIndex(books)
	j.engine.PublishIndex(index)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(j.workers)
	for _, book := range books {
		book := book
		group.Go(func() error {
			hits := index.MostSimilar(book.ID, similarityEdgesPerBook)
			edges := make([]*types.BookSimilarity, 0, len(hits))
			for _, hit := range hits {
				if hit.Score <= 0 {
					continue
				}
				edges = append(edges, &types.BookSimilarity{
					BookAID: book.ID,
					BookBID: hit.BookID,
					Method:  types.SimilarityMethodContent,
					Score:   hit.Score,
				})
			}
			if err := j.similarityRepo.ReplaceForBook(groupCtx, nil, book.ID, types.SimilarityMethodContent, edges); err != nil {
				return fmt.Errorf("persist similarities for %s: %w", book.ID, err)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	j.log.Info("Similarity rebuild finished",
		"books", len(books),
		"vocabulary", index.VocabularyLen(),
		"duration", time.Since(started).String())
	return nil
}
