package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/types"
)

type BookSimilarityRepo interface {
	TopForBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, method string, limit int) ([]*types.BookSimilarity, error)
	ReplaceForBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, method string, edges []*types.BookSimilarity) error
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type bookSimilarityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookSimilarityRepo(db *gorm.DB, baseLog *logger.Logger) BookSimilarityRepo {
	return &bookSimilarityRepo{db: db, log: baseLog.With("repo", "BookSimilarityRepo")}
}

func (r *bookSimilarityRepo) TopForBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, method string, limit int) ([]*types.BookSimilarity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.BookSimilarity
	if err := transaction.WithContext(ctx).
		Where("book_a_id = ? AND method = ?", bookID, method).
		Order("score DESC, book_b_id ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ReplaceForBook swaps out every edge a book owns for the given method in one
// transaction, so readers never observe a half-rebuilt neighbor list.
func (r *bookSimilarityRepo) ReplaceForBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, method string, edges []*types.BookSimilarity) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Transaction(func(innerTx *gorm.DB) error {
		if err := innerTx.
			Where("book_a_id = ? AND method = ?", bookID, method).
			Delete(&types.BookSimilarity{}).Error; err != nil {
			return err
		}
		if len(edges) == 0 {
			return nil
		}
		return innerTx.Create(&edges).Error
	})
}

func (r *bookSimilarityRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.BookSimilarity{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
