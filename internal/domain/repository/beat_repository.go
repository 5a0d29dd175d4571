package repository

import (
	"context"
	"errors"

	"beatmarket/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrBeatNotFound is returned when a beat id does not resolve.
var ErrBeatNotFound = errors.New("beat not found")

// BeatRepository defines persistence operations for beats.
type BeatRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Beat, error)

	// FindByIDForUpdate loads the beat under an exclusive row lock held until the transaction ends.
	// Deletion takes it so no purchase can reference the beat between the purchase count and the delete.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Beat, error)

	// FindByIDForShare loads the beat under a shared row lock. Purchases take it so concurrent
	// purchases proceed while a deletion or price change waits for them.
	FindByIDForShare(ctx context.Context, id uuid.UUID) (*entity.Beat, error)

	// List returns one page of beats matching filter, newest first, and the total match count.
	List(ctx context.Context, filter entity.BeatFilter, page entity.Page) ([]*entity.Beat, int64, error)

	Create(ctx context.Context, beat *entity.Beat) error
	Update(ctx context.Context, beat *entity.Beat) error

	// Delete removes the beat row only; callers cascade ratings and comments in the same transaction.
	Delete(ctx context.Context, id uuid.UUID) error
}
