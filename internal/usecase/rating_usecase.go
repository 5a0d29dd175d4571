package usecase

import (
	"context"

	"beatmarket/internal/domain/entity"

	"github.com/google/uuid"
)

// RatedBeatFilter narrows the listing of beats a user has rated.
type RatedBeatFilter struct {
	Search string
	Score  int // 0 matches every score
}

// RatingUsecase aggregates per-user ratings into per-beat summaries.
type RatingUsecase interface {
	// SubmitRating creates or replaces userID's rating of the beat.
	SubmitRating(ctx context.Context, beatID, userID uuid.UUID, value int) (*entity.Rating, error)

	// GetRatingSummary reports the beat's average and count; userID may be nil for anonymous viewers.
	GetRatingSummary(ctx context.Context, beatID uuid.UUID, userID *uuid.UUID) (*entity.RatingSummary, error)

	// ListRatings returns every rating of the beat, newest first.
	ListRatings(ctx context.Context, beatID uuid.UUID) ([]*entity.Rating, error)

	ListRatedBeats(ctx context.Context, userID uuid.UUID, filter RatedBeatFilter, page entity.Page) (*PageResult[*entity.RatedBeat], error)
}

// RankingUsecase ranks recent beats by rating.
type RankingUsecase interface {
	RankPopular(ctx context.Context, period entity.Period) ([]*entity.PopularBeat, error)
}
