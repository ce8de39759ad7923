package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/types"
)

// BookRepo is the read-only catalog accessor. The catalog is owned by the
// surrounding application; the engine never writes book rows.
type BookRepo interface {
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Book, error)
	GetByID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*types.Book, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, bookIDs []uuid.UUID) ([]*types.Book, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type bookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookRepo(db *gorm.DB, baseLog *logger.Logger) BookRepo {
	return &bookRepo{db: db, log: baseLog.With("repo", "BookRepo")}
}

func (r *bookRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Book, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Book
	if err := transaction.WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *bookRepo) GetByID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*types.Book, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Book
	if err := transaction.WithContext(ctx).
		Where("id = ?", bookID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *bookRepo) GetByIDs(ctx context.Context, tx *gorm.DB, bookIDs []uuid.UUID) ([]*types.Book, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Book
	if len(bookIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", bookIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *bookRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Book{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
