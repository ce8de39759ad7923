package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	ShelfFavorites  = "favorites"
	ShelfReading    = "reading"
	ShelfRead       = "read"
	ShelfWantToRead = "want_to_read"
	ShelfCustom     = "custom"
)

// ShelfWeights rank how strongly a shelf membership signals taste.
var ShelfWeights = map[string]float64{
	ShelfFavorites:  5.0,
	ShelfReading:    4.0,
	ShelfRead:       3.0,
	ShelfWantToRead: 2.0,
	ShelfCustom:     1.0,
}

func ShelfWeight(kind string) float64 {
	if w, ok := ShelfWeights[kind]; ok {
		return w
	}
	return 1.0
}

type ShelfEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shelf_user_book_kind,priority:1;column:user_id" json:"user_id"`
	BookID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shelf_user_book_kind,priority:2;column:book_id" json:"book_id"`
	Kind      string    `gorm:"not null;uniqueIndex:idx_shelf_user_book_kind,priority:3;column:kind" json:"kind"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ShelfEntry) TableName() string {
	return "shelf_entry"
}
