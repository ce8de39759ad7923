package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TrendingSnapshot holds the ordered trending book ids for one generation.
// Each trending rebuild replaces the previous snapshot wholesale instead of
// merging into it.
type TrendingSnapshot struct {
	ID          uuid.UUID                       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookIDs     datatypes.JSONSlice[uuid.UUID]  `gorm:"column:book_ids" json:"book_ids"`
	WindowDays  int                             `gorm:"not null;column:window_days" json:"window_days"`
	GeneratedAt time.Time                       `gorm:"not null;default:now();index;column:generated_at" json:"generated_at"`
}

func (TrendingSnapshot) TableName() string {
	return "trending_snapshot"
}
