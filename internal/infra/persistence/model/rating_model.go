package model

import (
	"time"

	"github.com/google/uuid"
)

// RatingModel mirrors the 'ratings' table. A user has at most one rating per beat.
type RatingModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BeatID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_ratings_beat_user,priority:1"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_ratings_beat_user,priority:2;index"`
	Value     int16     `gorm:"type:smallint;not null;check:chk_ratings_value_range,value BETWEEN 1 AND 5"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Beat *BeatModel `gorm:"foreignKey:BeatID;constraint:OnDelete:CASCADE"`
	User *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (RatingModel) TableName() string {
	return "ratings"
}
