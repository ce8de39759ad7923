package types

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title       string    `gorm:"not null;index;column:title" json:"title"`
	Author      string    `gorm:"column:author" json:"author"`
	Category    string    `gorm:"index;column:category" json:"category"`
	Description string    `gorm:"type:text;column:description" json:"description"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Book) TableName() string {
	return "book"
}
