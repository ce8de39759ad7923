package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/types"
)

// BookCount is an aggregate row: how many qualifying interactions a book has.
type BookCount struct {
	BookID uuid.UUID `gorm:"column:book_id"`
	Count  int64     `gorm:"column:cnt"`
}

// UserOverlap is an aggregate row: how many of the subject user's books
// another user has also interacted with.
type UserOverlap struct {
	UserID  uuid.UUID `gorm:"column:user_id"`
	Overlap int64     `gorm:"column:cnt"`
}

type BookInteractionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, interactions []*types.BookInteraction) ([]*types.BookInteraction, error)
	GetRecentPositive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.BookInteraction, error)
	BookIDsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
	FindOverlappingUsers(ctx context.Context, tx *gorm.DB, userID uuid.UUID, bookIDs []uuid.UUID, minOverlap int, limit int) ([]UserOverlap, error)
	CountEngagedByBook(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID, excludeBookIDs []uuid.UUID, limit int) ([]BookCount, error)
	TopEngaged(ctx context.Context, tx *gorm.DB, limit int) ([]BookCount, error)
	CountSince(ctx context.Context, tx *gorm.DB, since time.Time, limit int) ([]BookCount, error)
	UserActivity(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, time.Time, error)
}

type bookInteractionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookInteractionRepo(db *gorm.DB, baseLog *logger.Logger) BookInteractionRepo {
	return &bookInteractionRepo{db: db, log: baseLog.With("repo", "BookInteractionRepo")}
}

func (r *bookInteractionRepo) Create(ctx context.Context, tx *gorm.DB, interactions []*types.BookInteraction) ([]*types.BookInteraction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(interactions) == 0 {
		return []*types.BookInteraction{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&interactions).Error; err != nil {
		return nil, err
	}
	return interactions, nil
}

func (r *bookInteractionRepo) GetRecentPositive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.BookInteraction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.BookInteraction
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND kind IN ?", userID, types.PositiveInteractionKinds).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *bookInteractionRepo) BookIDsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.BookInteraction{}).
		Distinct("book_id").
		Where("user_id = ?", userID).
		Pluck("book_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *bookInteractionRepo) FindOverlappingUsers(ctx context.Context, tx *gorm.DB, userID uuid.UUID, bookIDs []uuid.UUID, minOverlap int, limit int) ([]UserOverlap, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []UserOverlap
	if len(bookIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.BookInteraction{}).
		Select("user_id, COUNT(DISTINCT book_id) AS cnt").
		Where("book_id IN ? AND user_id <> ? AND kind IN ?", bookIDs, userID, types.EngagedInteractionKinds).
		Group("user_id").
		Having("COUNT(DISTINCT book_id) >= ?", minOverlap).
		Order("cnt DESC, user_id ASC").
		Limit(limit).
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *bookInteractionRepo) CountEngagedByBook(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID, excludeBookIDs []uuid.UUID, limit int) ([]BookCount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []BookCount
	if len(userIDs) == 0 {
		return results, nil
	}

	query := transaction.WithContext(ctx).
		Model(&types.BookInteraction{}).
		Select("book_id, COUNT(DISTINCT user_id) AS cnt").
		Where("user_id IN ? AND kind IN ?", userIDs, types.EngagedInteractionKinds)
	if len(excludeBookIDs) > 0 {
		query = query.Where("book_id NOT IN ?", excludeBookIDs)
	}
	if err := query.
		Group("book_id").
		Order("cnt DESC, book_id ASC").
		Limit(limit).
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *bookInteractionRepo) TopEngaged(ctx context.Context, tx *gorm.DB, limit int) ([]BookCount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []BookCount
	if err := transaction.WithContext(ctx).
		Model(&types.BookInteraction{}).
		Select("book_id, COUNT(*) AS cnt").
		Where("kind IN ?", types.EngagedInteractionKinds).
		Group("book_id").
		Order("cnt DESC, book_id ASC").
		Limit(limit).
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *bookInteractionRepo) CountSince(ctx context.Context, tx *gorm.DB, since time.Time, limit int) ([]BookCount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []BookCount
	if err := transaction.WithContext(ctx).
		Model(&types.BookInteraction{}).
		Select("book_id, COUNT(*) AS cnt").
		Where("created_at >= ?", since).
		Group("book_id").
		Order("cnt DESC, book_id ASC").
		Limit(limit).
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *bookInteractionRepo) UserActivity(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, time.Time, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row struct {
		Cnt    int64      `gorm:"column:cnt"`
		Latest *time.Time `gorm:"column:latest"`
	}
	if err := transaction.WithContext(ctx).
		Model(&types.BookInteraction{}).
		Select("COUNT(*) AS cnt, MAX(created_at) AS latest").
		Where("user_id = ?", userID).
		Scan(&row).Error; err != nil {
		return 0, time.Time{}, err
	}
	latest := time.Time{}
	if row.Latest != nil {
		latest = *row.Latest
	}
	return row.Cnt, latest, nil
}
