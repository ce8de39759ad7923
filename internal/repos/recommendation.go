package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/types"
)

type RecommendationRepo interface {
	ReplaceForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, algorithm string, recs []*types.Recommendation) error
	MarkClicked(ctx context.Context, tx *gorm.DB, userID uuid.UUID, bookID uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context, tx *gorm.DB, before time.Time) (int64, error)
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return &recommendationRepo{db: db, log: baseLog.With("repo", "RecommendationRepo")}
}

func (r *recommendationRepo) ReplaceForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, algorithm string, recs []*types.Recommendation) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Transaction(func(innerTx *gorm.DB) error {
		if err := innerTx.
			Where("user_id = ? AND algorithm = ?", userID, algorithm).
			Delete(&types.Recommendation{}).Error; err != nil {
			return err
		}
		if len(recs) == 0 {
			return nil
		}
		return innerTx.Create(&recs).Error
	})
}

func (r *recommendationRepo) MarkClicked(ctx context.Context, tx *gorm.DB, userID uuid.UUID, bookID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	now := time.Now().UTC()
	result := transaction.WithContext(ctx).
		Model(&types.Recommendation{}).
		Where("user_id = ? AND book_id = ? AND clicked = ?", userID, bookID, false).
		Updates(map[string]interface{}{"clicked": true, "clicked_at": now})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *recommendationRepo) DeleteExpired(ctx context.Context, tx *gorm.DB, before time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&types.Recommendation{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
