package usecase

import (
	"context"

	"beatmarket/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateBeatInput defines the data required to list a new beat.
type CreateBeatInput struct {
	Title             string
	AuthorDisplayName string
	Price             decimal.Decimal
	Description       string
	Tags              []string
	ImageRef          string
	AudioRef          string
}

// UpdateBeatInput defines the editable beat fields. Nil leaves a field unchanged.
type UpdateBeatInput struct {
	Title             *string
	AuthorDisplayName *string
	Price             *decimal.Decimal
	Description       *string
	Tags              *[]string
	ImageRef          *string
	AudioRef          *string
}

// BeatDetails is a beat with its rating summary as seen by the viewer.
type BeatDetails struct {
	Beat   *entity.Beat
	Rating *entity.RatingSummary
}

// BeatUsecase defines the beat catalogue.
type BeatUsecase interface {
	CreateBeat(ctx context.Context, ownerID uuid.UUID, input *CreateBeatInput) (*entity.Beat, error)
	GetBeat(ctx context.Context, beatID uuid.UUID, viewerID *uuid.UUID) (*BeatDetails, error)
	ListBeats(ctx context.Context, filter entity.BeatFilter, page entity.Page) (*PageResult[*entity.Beat], error)
	UpdateBeat(ctx context.Context, principal entity.Principal, beatID uuid.UUID, input *UpdateBeatInput) (*entity.Beat, error)

	// DeleteBeat removes a beat with its ratings and comments. Purchased beats cannot be deleted.
	DeleteBeat(ctx context.Context, principal entity.Principal, beatID uuid.UUID) error

	// ShareQR renders a PNG QR code pointing at the beat.
	ShareQR(ctx context.Context, beatID uuid.UUID) ([]byte, error)

	// ResolveShareLink returns the beat a scanned share link points at.
	ResolveShareLink(ctx context.Context, link string, viewerID *uuid.UUID) (*BeatDetails, error)
}
