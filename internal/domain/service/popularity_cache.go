package service

import (
	"context"

	"beatmarket/internal/domain/entity"
)

// PopularityCache memoises popularity rankings per period for a short time.
// Get reports hit=false on a miss; implementations never return stale data past their TTL.
type PopularityCache interface {
	Get(ctx context.Context, period entity.Period) (ranking []*entity.PopularBeat, hit bool, err error)
	Set(ctx context.Context, period entity.Period, ranking []*entity.PopularBeat) error

	// Invalidate drops every cached ranking.
	Invalidate(ctx context.Context) error
	Close() error
}
