package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/repos"
)

// Intervals configure how often each periodic job runs.
type Intervals struct {
	Similarity time.Duration
	Trending   time.Duration
	Cleanup    time.Duration
}

func DefaultIntervals() Intervals {
	return Intervals{
		Similarity: 24 * time.Hour,
		Trending:   6 * time.Hour,
		Cleanup:    24 * time.Hour,
	}
}

// Worker owns the background job loops. Start runs an initial similarity and
// trending pass so the engine has artifacts before the first tick, then
// keeps each job on its own ticker until the context is cancelled.
type Worker struct {
	similarity         *SimilarityRebuild
	trending           *TrendingRebuild
	recommendationRepo repos.RecommendationRepo
	intervals          Intervals
	log                *logger.Logger

	wg sync.WaitGroup
}

func NewWorker(similarity *SimilarityRebuild, trending *TrendingRebuild, recommendationRepo repos.RecommendationRepo, intervals Intervals, baseLog *logger.Logger) *Worker {
	return &Worker{
		similarity:         similarity,
		trending:           trending,
		recommendationRepo: recommendationRepo,
		intervals:          intervals,
		log:                baseLog.With("component", "JobWorker"),
	}
}

// Start runs the bootstrap pass synchronously, then launches the loops.
// Bootstrap failures are logged, not fatal: the online path degrades to its
// fallbacks until the first successful tick.
func (w *Worker) Start(ctx context.Context) {
	if err := w.trending.Restore(ctx); err != nil {
		w.log.Warn("Trending restore failed", "error", err)
	}
	if err := w.similarity.Run(ctx); err != nil {
		w.log.Warn("Initial similarity rebuild failed", "error", err)
	}
	if err := w.trending.Run(ctx, 0); err != nil {
		w.log.Warn("Initial trending rebuild failed", "error", err)
	}

	w.loop(ctx, "similarity", w.intervals.Similarity, w.similarity.Run)
	w.loop(ctx, "trending", w.intervals.Trending, func(ctx context.Context) error {
		return w.trending.Run(ctx, 0)
	})
	w.loop(ctx, "cleanup", w.intervals.Cleanup, w.cleanupExpired)
}

// Wait blocks until every loop has exited after context cancellation.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) loop(ctx context.Context, name string, interval time.Duration, run func(context.Context) error) {
	if interval <= 0 {
		w.log.Warn("Job disabled by non-positive interval", "job", name)
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := run(ctx); err != nil {
					w.log.Error("Job run failed", "job", name, "error", err)
				}
			}
		}
	}()
}

func (w *Worker) cleanupExpired(ctx context.Context) error {
	deleted, err := w.recommendationRepo.DeleteExpired(ctx, nil, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("delete expired recommendations: %w", err)
	}
	if deleted > 0 {
		w.log.Info("Deleted expired recommendations", "count", deleted)
	}
	return nil
}
