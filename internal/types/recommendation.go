package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	AlgorithmCollaborative = "collaborative"
	AlgorithmContent       = "content"
	AlgorithmHybrid        = "hybrid"
)

// Recommendation is one row of a user's materialized recommendation set.
// The whole set for (user, algorithm) is replaced on each cache miss and
// expires passively; an expired row is treated as a miss.
type Recommendation struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_rec_user_algo,priority:1;column:user_id" json:"user_id"`
	BookID    uuid.UUID  `gorm:"type:uuid;not null;index;column:book_id" json:"book_id"`
	Algorithm string     `gorm:"not null;index:idx_rec_user_algo,priority:2;column:algorithm" json:"algorithm"`
	Score     float64    `gorm:"not null;column:score" json:"score"`
	Reason    string     `gorm:"type:text;column:reason" json:"reason"`
	StateHash string     `gorm:"column:state_hash" json:"state_hash"`
	Position  int        `gorm:"not null;default:0;column:position" json:"position"`
	Clicked   bool       `gorm:"not null;default:false;column:clicked" json:"clicked"`
	ClickedAt *time.Time `gorm:"column:clicked_at" json:"clicked_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;default:now()" json:"created_at"`
	ExpiresAt time.Time  `gorm:"not null;index;column:expires_at" json:"expires_at"`
}

func (Recommendation) TableName() string {
	return "recommendation"
}
