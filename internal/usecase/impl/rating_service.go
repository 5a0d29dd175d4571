package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "beatmarket/internal/delivery/context"
	"beatmarket/internal/domain/entity"
	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/domain/repository"
	"beatmarket/internal/domain/service"
	"beatmarket/internal/errors"
	"beatmarket/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

const defaultRatedBeatsPageSize = 10

// ratingService implements the RatingUsecase interface.
type ratingService struct {
	txManager  repository.TransactionManager
	beatRepo   repository.BeatRepository
	ratingRepo repository.RatingRepository
	cache      service.PopularityCache
	now        func() time.Time
	logger     *slog.Logger
}

// RatingServiceParams holds dependencies for RatingService, injected by Fx.
type RatingServiceParams struct {
	fx.In

	TxManager  repository.TransactionManager
	BeatRepo   repository.BeatRepository
	RatingRepo repository.RatingRepository
	Cache      service.PopularityCache `optional:"true"`
	Logger     *slog.Logger
}

// NewRatingService is the constructor for ratingService.
func NewRatingService(params RatingServiceParams) usecase.RatingUsecase {
	return &ratingService{
		txManager:  params.TxManager,
		beatRepo:   params.BeatRepo,
		ratingRepo: params.RatingRepo,
		cache:      params.Cache,
		now:        time.Now,
		logger:     params.Logger,
	}
}

func (srv *ratingService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// SubmitRating validates the value and upserts the (beat, user) rating.
func (srv *ratingService) SubmitRating(ctx context.Context, beatID, userID uuid.UUID, value int) (*entity.Rating, error) {
	if !entity.ValidRatingValue(value) {
		return nil, domainerrors.ErrInvalidRating
	}

	var stored *entity.Rating
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if _, err := repoFactory.BeatRepo().FindByID(ctx, beatID); err != nil {
			return mapBeatErr(err)
		}

		now := srv.now().UTC()
		rating, err := repoFactory.RatingRepo().Upsert(ctx, &entity.Rating{
			ID:        uuid.New(),
			BeatID:    beatID,
			UserID:    userID,
			Value:     value,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return errors.Wrap(err, "failed to upsert rating")
		}
		stored = rating

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Debug("Rating submitted", slog.Any("beatID", beatID), slog.Any("userID", userID), slog.Int("value", value))
	invalidatePopularity(ctx, srv.cache, srv.log(ctx))

	return stored, nil
}

// GetRatingSummary reports the viewer's own rating and the beat's rounded average.
func (srv *ratingService) GetRatingSummary(ctx context.Context, beatID uuid.UUID, userID *uuid.UUID) (*entity.RatingSummary, error) {
	if _, err := srv.beatRepo.FindByID(ctx, beatID); err != nil {
		return nil, mapBeatErr(err)
	}

	return loadRatingSummary(ctx, srv.ratingRepo, beatID, userID)
}

// ListRatings returns the beat's individual ratings.
func (srv *ratingService) ListRatings(ctx context.Context, beatID uuid.UUID) ([]*entity.Rating, error) {
	if _, err := srv.beatRepo.FindByID(ctx, beatID); err != nil {
		return nil, mapBeatErr(err)
	}

	ratings, err := srv.ratingRepo.ListByBeat(ctx, beatID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list ratings")
	}

	return ratings, nil
}

// ListRatedBeats pages the beats a user rated, optionally narrowed to one score.
func (srv *ratingService) ListRatedBeats(ctx context.Context, userID uuid.UUID, filter usecase.RatedBeatFilter, page entity.Page) (*usecase.PageResult[*entity.RatedBeat], error) {
	if filter.Score != 0 && !entity.ValidRatingValue(filter.Score) {
		return nil, domainerrors.ErrInvalidRating
	}

	page = page.Normalize(defaultRatedBeatsPageSize, maxPageSize)
	items, total, err := srv.ratingRepo.ListRatedByUser(ctx, userID, filter.Search, filter.Score, page)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list rated beats")
	}

	return &usecase.PageResult[*entity.RatedBeat]{Items: items, Total: total, Page: page}, nil
}

func loadRatingSummary(ctx context.Context, ratingRepo repository.RatingRepository, beatID uuid.UUID, userID *uuid.UUID) (*entity.RatingSummary, error) {
	sum, count, err := ratingRepo.Stats(ctx, beatID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate ratings")
	}

	summary := &entity.RatingSummary{
		AverageRating: entity.AverageRating(sum, count),
		RatingsCount:  count,
	}

	if userID == nil {
		return summary, nil
	}

	own, err := ratingRepo.Find(ctx, beatID, *userID)
	switch {
	case err == nil:
		summary.UserRating = own.Value
	case !errors.Is(err, repository.ErrRatingNotFound):
		return nil, errors.Wrap(err, "failed to load user rating")
	}

	return summary, nil
}

func invalidatePopularity(ctx context.Context, cache service.PopularityCache, logger *slog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		logger.Warn("Failed to invalidate popularity cache", slog.Any("error", err))
	}
}
