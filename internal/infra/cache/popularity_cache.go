// Package cache memoises popularity rankings in Redis.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"beatmarket/config"
	"beatmarket/internal/domain/entity"
	"beatmarket/internal/domain/service"
	"beatmarket/internal/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

const keyPrefix = "beatmarket:popular:"

var periods = []entity.Period{entity.PeriodDay, entity.PeriodMonth, entity.PeriodYear}

type redisPopularityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// noopPopularityCache always misses. Used when redis.addr is empty.
type noopPopularityCache struct{}

func (noopPopularityCache) Get(context.Context, entity.Period) ([]*entity.PopularBeat, bool, error) {
	return nil, false, nil
}
func (noopPopularityCache) Set(context.Context, entity.Period, []*entity.PopularBeat) error {
	return nil
}
func (noopPopularityCache) Invalidate(context.Context) error { return nil }
func (noopPopularityCache) Close() error                     { return nil }

// PopularityCacheParams holds dependencies for the PopularityCache, injected by Fx
type PopularityCacheParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewPopularityCache connects to Redis, or returns a cache that never hits when Redis is not configured.
func NewPopularityCache(params PopularityCacheParams) (service.PopularityCache, error) {
	cfg := params.Config.Redis
	if cfg == nil || cfg.Addr == "" {
		params.Logger.Info("Redis not configured, popularity cache disabled")

		return noopPopularityCache{}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(params.Ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()

		return nil, errors.Wrapf(err, "failed to connect to redis at %s", cfg.Addr)
	}
	params.Logger.Info("Popularity cache connected", slog.String("addr", cfg.Addr), slog.Duration("ttl", cfg.PopularTTL))

	c := &redisPopularityCache{client: rdb, ttl: cfg.PopularTTL}
	params.Lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			params.Logger.Info("Closing redis client")

			return c.Close()
		},
	})

	return c, nil
}

func (c *redisPopularityCache) Get(ctx context.Context, period entity.Period) ([]*entity.PopularBeat, bool, error) {
	raw, err := c.client.Get(ctx, popularKey(period)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, errors.Wrap(err, "failed to read popularity cache")
	}

	ranking, err := decodeRanking(raw)
	if err != nil {
		return nil, false, err
	}

	return ranking, true, nil
}

func (c *redisPopularityCache) Set(ctx context.Context, period entity.Period, ranking []*entity.PopularBeat) error {
	raw, err := encodeRanking(ranking)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, popularKey(period), raw, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to write popularity cache")
	}

	return nil
}

func (c *redisPopularityCache) Invalidate(ctx context.Context) error {
	keys := make([]string, 0, len(periods))
	for _, p := range periods {
		keys = append(keys, popularKey(p))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "failed to invalidate popularity cache")
	}

	return nil
}

func (c *redisPopularityCache) Close() error {
	return c.client.Close()
}

func popularKey(period entity.Period) string {
	return keyPrefix + string(period)
}

// --- Codec ---

type cachedBeat struct {
	ID                uuid.UUID       `json:"id"`
	Title             string          `json:"title"`
	AuthorDisplayName string          `json:"author_display_name"`
	Price             decimal.Decimal `json:"price"`
	Description       string          `json:"description"`
	Tags              []string        `json:"tags"`
	ImageRef          string          `json:"image_ref,omitempty"`
	AudioRef          string          `json:"audio_ref,omitempty"`
	OwnerUserID       uuid.UUID       `json:"owner_user_id"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	AverageRating     float64         `json:"average_rating"`
	RatingsCount      int64           `json:"ratings_count"`
}

func encodeRanking(ranking []*entity.PopularBeat) ([]byte, error) {
	rows := make([]cachedBeat, 0, len(ranking))
	for _, p := range ranking {
		b := p.Beat
		rows = append(rows, cachedBeat{
			ID:                b.ID,
			Title:             b.Title,
			AuthorDisplayName: b.AuthorDisplayName,
			Price:             b.Price,
			Description:       b.Description,
			Tags:              b.Tags,
			ImageRef:          b.ImageRef,
			AudioRef:          b.AudioRef,
			OwnerUserID:       b.OwnerUserID,
			CreatedAt:         b.CreatedAt,
			UpdatedAt:         b.UpdatedAt,
			AverageRating:     p.AverageRating,
			RatingsCount:      p.RatingsCount,
		})
	}

	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode popularity ranking")
	}

	return raw, nil
}

func decodeRanking(raw []byte) ([]*entity.PopularBeat, error) {
	var rows []cachedBeat
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, errors.Wrap(err, "failed to decode popularity ranking")
	}

	ranking := make([]*entity.PopularBeat, 0, len(rows))
	for _, r := range rows {
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		ranking = append(ranking, &entity.PopularBeat{
			Beat: &entity.Beat{
				ID:                r.ID,
				Title:             r.Title,
				AuthorDisplayName: r.AuthorDisplayName,
				Price:             r.Price,
				Description:       r.Description,
				Tags:              tags,
				ImageRef:          r.ImageRef,
				AudioRef:          r.AudioRef,
				OwnerUserID:       r.OwnerUserID,
				CreatedAt:         r.CreatedAt,
				UpdatedAt:         r.UpdatedAt,
			},
			AverageRating: r.AverageRating,
			RatingsCount:  r.RatingsCount,
		})
	}

	return ranking, nil
}
