package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/types"
)

type TrendingSnapshotRepo interface {
	Replace(ctx context.Context, tx *gorm.DB, snapshot *types.TrendingSnapshot) error
	Latest(ctx context.Context, tx *gorm.DB) (*types.TrendingSnapshot, error)
}

type trendingSnapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrendingSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) TrendingSnapshotRepo {
	return &trendingSnapshotRepo{db: db, log: baseLog.With("repo", "TrendingSnapshotRepo")}
}

// Replace drops every prior snapshot and inserts the new one atomically.
// Trending is always a wholesale replacement, never an incremental merge.
func (r *trendingSnapshotRepo) Replace(ctx context.Context, tx *gorm.DB, snapshot *types.TrendingSnapshot) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Transaction(func(innerTx *gorm.DB) error {
		if err := innerTx.
			Where("1 = 1").
			Delete(&types.TrendingSnapshot{}).Error; err != nil {
			return err
		}
		return innerTx.Create(snapshot).Error
	})
}

func (r *trendingSnapshotRepo) Latest(ctx context.Context, tx *gorm.DB) (*types.TrendingSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.TrendingSnapshot
	if err := transaction.WithContext(ctx).
		Order("generated_at DESC").
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}
