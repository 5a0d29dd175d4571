package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	// MinRatingValue is the lowest score a user can give.
	MinRatingValue = 1
	// MaxRatingValue is the highest score a user can give.
	MaxRatingValue = 5
)

// Rating is a user's score for a beat. There is at most one per (BeatID, UserID).
type Rating struct {
	ID        uuid.UUID
	BeatID    uuid.UUID
	UserID    uuid.UUID
	Value     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidRatingValue reports whether v is an allowed score.
func ValidRatingValue(v int) bool {
	return v >= MinRatingValue && v <= MaxRatingValue
}

// RatingSummary is the aggregate view of a beat's ratings from one user's perspective.
// UserRating and AverageRating are 0 when there is nothing to report.
type RatingSummary struct {
	UserRating    int
	AverageRating float64
	RatingsCount  int64
}

// BeatRatingStats is the grouped rating sum and count of a single beat.
type BeatRatingStats struct {
	Beat  *Beat
	Sum   int64
	Count int64
}

// PopularBeat is one entry of a popularity ranking.
type PopularBeat struct {
	Beat          *Beat
	AverageRating float64
	RatingsCount  int64
}

// RatedBeat is a beat together with the score the listing user gave it.
type RatedBeat struct {
	Beat      *Beat
	UserScore int
}
