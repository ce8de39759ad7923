package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/recommend"
	"github.com/cgbookstore/bookrec-backend/internal/repos"
	"github.com/cgbookstore/bookrec-backend/internal/types"
)

const (
	defaultTrendingWindowDays = 7
	trendingTopN              = 50
)

// TrendingRebuild counts interactions over the trailing window, persists the
// ordered top books as a snapshot, and publishes the ids for the hybrid
// combiner's fill step.
type TrendingRebuild struct {
	engine          *recommend.Engine
	interactionRepo repos.BookInteractionRepo
	trendingRepo    repos.TrendingSnapshotRepo
	windowDays      int
	log             *logger.Logger
}

// windowDays is the window used when Run gets no explicit override; zero or
// negative falls back to the 7-day default.
func NewTrendingRebuild(engine *recommend.Engine, interactionRepo repos.BookInteractionRepo, trendingRepo repos.TrendingSnapshotRepo, windowDays int, baseLog *logger.Logger) *TrendingRebuild {
	if windowDays <= 0 {
		windowDays = defaultTrendingWindowDays
	}
	return &TrendingRebuild{
		engine:          engine,
		interactionRepo: interactionRepo,
		trendingRepo:    trendingRepo,
		windowDays:      windowDays,
		log:             baseLog.With("job", "TrendingRebuild"),
	}
}

// Run rebuilds the snapshot over the trailing windowDays; pass zero to use
// the configured window.
func (j *TrendingRebuild) Run(ctx context.Context, windowDays int) error {
	if windowDays <= 0 {
		windowDays = j.windowDays
	}
	since := time.Now().UTC().AddDate(0, 0, -windowDays)
	counts, err := j.interactionRepo.CountSince(ctx, nil, since, trendingTopN)
	if err != nil {
		return fmt.Errorf("count recent interactions: %w", err)
	}

	bookIDs := make([]uuid.UUID, 0, len(counts))
	for _, count := range counts {
		bookIDs = append(bookIDs, count.BookID)
	}

	snapshot := &types.TrendingSnapshot{
		BookIDs:     datatypes.NewJSONSlice(bookIDs),
		WindowDays:  windowDays,
		GeneratedAt: time.Now().UTC(),
	}
	if err := j.trendingRepo.Replace(ctx, nil, snapshot); err != nil {
		return fmt.Errorf("persist trending snapshot: %w", err)
	}

	j.engine.PublishTrending(bookIDs)
	j.log.Info("Trending rebuild finished", "books", len(bookIDs), "window_days", windowDays)
	return nil
}

// Restore loads the latest persisted snapshot into the engine, used at
// startup so a restart does not blank the trending fill until the next
// rebuild tick.
func (j *TrendingRebuild) Restore(ctx context.Context) error {
	snapshot, err := j.trendingRepo.Latest(ctx, nil)
	if err != nil {
		return fmt.Errorf("load latest trending snapshot: %w", err)
	}
	if snapshot == nil {
		return nil
	}
	j.engine.PublishTrending(snapshot.BookIDs)
	j.log.Info("Restored trending snapshot", "books", len(snapshot.BookIDs), "generated_at", snapshot.GeneratedAt)
	return nil
}
