package types

import (
	"time"

	"github.com/google/uuid"
)

const SimilarityMethodContent = "content"

// BookSimilarity is a precomputed item-item similarity edge. Written only by
// the similarity rebuild job; the online path treats the table as read-only.
type BookSimilarity struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookAID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_similarity_pair_method,priority:1;index:idx_similarity_book_a;column:book_a_id" json:"book_a_id"`
	BookBID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_similarity_pair_method,priority:2;column:book_b_id" json:"book_b_id"`
	Score     float64   `gorm:"not null;column:score" json:"score"`
	Method    string    `gorm:"not null;uniqueIndex:idx_similarity_pair_method,priority:3;column:method" json:"method"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (BookSimilarity) TableName() string {
	return "book_similarity"
}
