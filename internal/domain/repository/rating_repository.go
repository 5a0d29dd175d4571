package repository

import (
	"context"
	"errors"
	"time"

	"beatmarket/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrRatingNotFound is returned when a user has not rated a beat.
var ErrRatingNotFound = errors.New("rating not found")

// RatingRepository defines persistence operations for ratings.
type RatingRepository interface {
	// Upsert inserts the rating or, when (BeatID, UserID) already exists, replaces its value.
	// The returned rating reflects the stored row.
	Upsert(ctx context.Context, rating *entity.Rating) (*entity.Rating, error)

	Find(ctx context.Context, beatID, userID uuid.UUID) (*entity.Rating, error)
	ListByBeat(ctx context.Context, beatID uuid.UUID) ([]*entity.Rating, error)

	// Stats returns the sum and count of the beat's rating values.
	Stats(ctx context.Context, beatID uuid.UUID) (sum, count int64, err error)

	// StatsForBeatsCreatedBetween groups ratings per beat for every beat created in [since, until].
	// Beats without ratings are included with zero sum and count. Rows come newest beat first.
	StatsForBeatsCreatedBetween(ctx context.Context, since, until time.Time) ([]entity.BeatRatingStats, error)

	// ListRatedByUser pages the beats userID has rated, newest rating first.
	// score 0 matches every score, search filters on beat title.
	ListRatedByUser(ctx context.Context, userID uuid.UUID, search string, score int, page entity.Page) ([]*entity.RatedBeat, int64, error)

	DeleteByBeat(ctx context.Context, beatID uuid.UUID) error
}
