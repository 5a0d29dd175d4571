package impl

import (
	"context"
	"log/slog"
	"time"

	"beatmarket/config"
	deliverycontext "beatmarket/internal/delivery/context"
	"beatmarket/internal/domain/entity"
	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/domain/repository"
	"beatmarket/internal/domain/service"
	"beatmarket/internal/errors"
	"beatmarket/internal/usecase"

	"go.uber.org/fx"
)

// rankingService implements the RankingUsecase interface.
type rankingService struct {
	ratingRepo repository.RatingRepository
	cache      service.PopularityCache
	limit      int
	now        func() time.Time
	logger     *slog.Logger
}

// RankingServiceParams holds dependencies for RankingService, injected by Fx.
type RankingServiceParams struct {
	fx.In

	RatingRepo repository.RatingRepository
	Cache      service.PopularityCache `optional:"true"`
	Config     *config.Config
	Logger     *slog.Logger
}

// NewRankingService is the constructor for rankingService.
func NewRankingService(params RankingServiceParams) usecase.RankingUsecase {
	return &rankingService{
		ratingRepo: params.RatingRepo,
		cache:      params.Cache,
		limit:      params.Config.Marketplace.PopularLimit,
		now:        time.Now,
		logger:     params.Logger,
	}
}

func (srv *rankingService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// RankPopular ranks the beats created within the period by average rating, then by rating count.
func (srv *rankingService) RankPopular(ctx context.Context, period entity.Period) ([]*entity.PopularBeat, error) {
	if !period.IsValid() {
		return nil, domainerrors.ErrInvalidPeriod
	}

	if srv.cache != nil {
		cached, hit, err := srv.cache.Get(ctx, period)
		if err != nil {
			srv.log(ctx).Warn("Popularity cache read failed", slog.String("period", string(period)), slog.Any("error", err))
		} else if hit {
			return cached, nil
		}
	}

	// window
	now := srv.now().UTC()
	since := period.Since(now)

	// filter, join and group
	stats, err := srv.ratingRepo.StatsForBeatsCreatedBetween(ctx, since, now)
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate ratings for popularity")
	}

	// sort, limit and project
	ranked := entity.RankByRating(stats, srv.limit)

	if srv.cache != nil {
		if err := srv.cache.Set(ctx, period, ranked); err != nil {
			srv.log(ctx).Warn("Popularity cache write failed", slog.String("period", string(period)), slog.Any("error", err))
		}
	}

	return ranked, nil
}
