package model

import (
	"time"

	"github.com/google/uuid"
)

// CommentModel mirrors the 'comments' table. AuthorUsername is denormalised at write time.
type CommentModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	BeatID         uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID         uuid.UUID `gorm:"type:uuid;not null"`
	AuthorUsername string    `gorm:"type:varchar(100);not null"`
	Text           string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time
}

// TableName explicitly sets the table name for GORM.
func (CommentModel) TableName() string {
	return "comments"
}
