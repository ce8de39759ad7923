package types

import (
	"time"

	"github.com/google/uuid"
)

// Interaction kinds, weakest to strongest. The strength scale matters for
// scoring: wishlist marks intent, reading marks engagement, read/completed/
// review mark a finished book.
const (
	InteractionView      = "view"
	InteractionClick     = "click"
	InteractionWishlist  = "wishlist"
	InteractionReading   = "reading"
	InteractionRead      = "read"
	InteractionCompleted = "completed"
	InteractionReview    = "review"
	InteractionShare     = "share"
)

// PositiveInteractionKinds qualify a book as a content-based seed.
var PositiveInteractionKinds = []string{
	InteractionWishlist,
	InteractionReading,
	InteractionRead,
	InteractionCompleted,
	InteractionReview,
}

// EngagedInteractionKinds count toward collaborative and popularity scoring.
var EngagedInteractionKinds = []string{
	InteractionReading,
	InteractionRead,
	InteractionCompleted,
	InteractionReview,
}

type BookInteraction struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_interaction_user_date,priority:1;column:user_id" json:"user_id"`
	BookID    uuid.UUID `gorm:"type:uuid;not null;index;column:book_id" json:"book_id"`
	Kind      string    `gorm:"not null;index;column:kind" json:"kind"`
	Rating    *int      `gorm:"column:rating" json:"rating,omitempty"`
	Duration  int       `gorm:"not null;default:0;column:duration" json:"duration"`
	CreatedAt time.Time `gorm:"not null;default:now();index:idx_interaction_user_date,priority:2,sort:desc" json:"created_at"`
}

func (BookInteraction) TableName() string {
	return "book_interaction"
}
