package entity

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a text remark left by a user on a beat.
type Comment struct {
	ID             uuid.UUID
	BeatID         uuid.UUID
	UserID         uuid.UUID
	AuthorUsername string
	Text           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
