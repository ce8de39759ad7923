package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/types"
)

type ShelfEntryRepo interface {
	GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ShelfEntry, error)
	BookIDsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
	KindCounts(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string]int64, error)
}

type shelfEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShelfEntryRepo(db *gorm.DB, baseLog *logger.Logger) ShelfEntryRepo {
	return &shelfEntryRepo{db: db, log: baseLog.With("repo", "ShelfEntryRepo")}
}

func (r *shelfEntryRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ShelfEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ShelfEntry
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *shelfEntryRepo) BookIDsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.ShelfEntry{}).
		Distinct("book_id").
		Where("user_id = ?", userID).
		Pluck("book_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *shelfEntryRepo) KindCounts(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []struct {
		Kind string `gorm:"column:kind"`
		Cnt  int64  `gorm:"column:cnt"`
	}
	if err := transaction.WithContext(ctx).
		Model(&types.ShelfEntry{}).
		Select("kind, COUNT(*) AS cnt").
		Where("user_id = ?", userID).
		Group("kind").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Kind] = row.Cnt
	}
	return counts, nil
}
