package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	deliverycontext "beatmarket/internal/delivery/context"
	"beatmarket/internal/domain/entity"
	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/domain/policy"
	"beatmarket/internal/domain/repository"
	"beatmarket/internal/domain/service"
	"beatmarket/internal/errors"
	"beatmarket/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

const defaultBeatsPageSize = 20

// beatService implements the BeatUsecase interface.
type beatService struct {
	txManager  repository.TransactionManager
	userRepo   repository.UserRepository
	beatRepo   repository.BeatRepository
	ratingRepo repository.RatingRepository
	media      service.MediaStore
	qrCode     service.QRCodeService
	cache      service.PopularityCache
	now        func() time.Time
	logger     *slog.Logger
}

// BeatServiceParams holds dependencies for BeatService, injected by Fx.
type BeatServiceParams struct {
	fx.In

	TxManager  repository.TransactionManager
	UserRepo   repository.UserRepository
	BeatRepo   repository.BeatRepository
	RatingRepo repository.RatingRepository
	Media      service.MediaStore
	QRCode     service.QRCodeService
	Cache      service.PopularityCache `optional:"true"`
	Logger     *slog.Logger
}

// NewBeatService is the constructor for beatService.
func NewBeatService(params BeatServiceParams) usecase.BeatUsecase {
	return &beatService{
		txManager:  params.TxManager,
		userRepo:   params.UserRepo,
		beatRepo:   params.BeatRepo,
		ratingRepo: params.RatingRepo,
		media:      params.Media,
		qrCode:     params.QRCode,
		cache:      params.Cache,
		now:        time.Now,
		logger:     params.Logger,
	}
}

func (srv *beatService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreateBeat lists a new beat owned by ownerID.
func (srv *beatService) CreateBeat(ctx context.Context, ownerID uuid.UUID, input *usecase.CreateBeatInput) (*entity.Beat, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("title is required")
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}

	owner, err := srv.userRepo.FindByID(ctx, ownerID)
	if err != nil {
		return nil, mapUserErr(err)
	}

	author := strings.TrimSpace(input.AuthorDisplayName)
	if author == "" {
		author = owner.Username
	}

	now := srv.now().UTC()
	beat := &entity.Beat{
		ID:                uuid.New(),
		Title:             title,
		AuthorDisplayName: author,
		Price:             input.Price,
		Description:       strings.TrimSpace(input.Description),
		Tags:              normalizeTags(input.Tags),
		ImageRef:          input.ImageRef,
		AudioRef:          input.AudioRef,
		OwnerUserID:       owner.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := srv.beatRepo.Create(ctx, beat); err != nil {
		return nil, errors.Wrap(err, "failed to create beat")
	}

	srv.log(ctx).Info("Beat created", slog.Any("beatID", beat.ID), slog.Any("ownerID", owner.ID))
	invalidatePopularity(ctx, srv.cache, srv.log(ctx))

	return beat, nil
}

// GetBeat returns the beat and its rating summary from the viewer's perspective.
func (srv *beatService) GetBeat(ctx context.Context, beatID uuid.UUID, viewerID *uuid.UUID) (*usecase.BeatDetails, error) {
	beat, err := srv.beatRepo.FindByID(ctx, beatID)
	if err != nil {
		return nil, mapBeatErr(err)
	}

	summary, err := loadRatingSummary(ctx, srv.ratingRepo, beatID, viewerID)
	if err != nil {
		return nil, err
	}

	return &usecase.BeatDetails{Beat: beat, Rating: summary}, nil
}

// ListBeats pages beats matching filter, newest first.
func (srv *beatService) ListBeats(ctx context.Context, filter entity.BeatFilter, page entity.Page) (*usecase.PageResult[*entity.Beat], error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, domainerrors.ErrValidationFailed.WithDetails("minPrice must not exceed maxPrice")
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Tags = normalizeTags(filter.Tags)

	page = page.Normalize(defaultBeatsPageSize, maxPageSize)
	beats, total, err := srv.beatRepo.List(ctx, filter, page)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list beats")
	}

	return &usecase.PageResult[*entity.Beat]{Items: beats, Total: total, Page: page}, nil
}

// UpdateBeat applies the non-nil fields of input when the principal may modify the beat.
func (srv *beatService) UpdateBeat(ctx context.Context, principal entity.Principal, beatID uuid.UUID, input *usecase.UpdateBeatInput) (*entity.Beat, error) {
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("title must not be empty")
	}

	var updated *entity.Beat
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		beatRepo := repoFactory.BeatRepo()

		beat, err := beatRepo.FindByID(ctx, beatID)
		if err != nil {
			return mapBeatErr(err)
		}
		if !policy.CanModifyBeat(principal, beat) {
			return domainerrors.ErrForbidden.WithDetails("only the owner or an admin can edit this beat")
		}

		applyBeatUpdate(beat, input)
		beat.UpdatedAt = srv.now().UTC()

		if err := beatRepo.Update(ctx, beat); err != nil {
			return errors.Wrap(err, "failed to update beat")
		}
		updated = beat

		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidatePopularity(ctx, srv.cache, srv.log(ctx))

	return updated, nil
}

// DeleteBeat removes an unpurchased beat together with its ratings and comments.
func (srv *beatService) DeleteBeat(ctx context.Context, principal entity.Principal, beatID uuid.UUID) error {
	var deleted *entity.Beat
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		beatRepo := repoFactory.BeatRepo()

		beat, err := beatRepo.FindByIDForUpdate(ctx, beatID)
		if err != nil {
			return mapBeatErr(err)
		}

		purchases, err := repoFactory.LedgerRepo().CountForBeat(ctx, beatID)
		if err != nil {
			return errors.Wrap(err, "failed to count purchases")
		}
		if err := policy.CheckBeatDeletion(principal, beat, purchases); err != nil {
			return err
		}

		if err := repoFactory.RatingRepo().DeleteByBeat(ctx, beatID); err != nil {
			return errors.Wrap(err, "failed to delete ratings")
		}
		if err := repoFactory.CommentRepo().DeleteByBeat(ctx, beatID); err != nil {
			return errors.Wrap(err, "failed to delete comments")
		}
		if err := beatRepo.Delete(ctx, beatID); err != nil {
			return mapBeatErr(err)
		}
		deleted = beat

		return nil
	})
	if err != nil {
		return err
	}

	srv.log(ctx).Info("Beat deleted", slog.Any("beatID", beatID), slog.Any("principal", principal.UserID))

	for _, key := range []string{deleted.ImageRef, deleted.AudioRef} {
		if key == "" {
			continue
		}
		if err := srv.media.Delete(ctx, key); err != nil {
			srv.log(ctx).Warn("Failed to remove beat media", slog.String("key", key), slog.Any("error", err))
		}
	}
	invalidatePopularity(ctx, srv.cache, srv.log(ctx))

	return nil
}

// ShareQR renders a QR code for an existing beat.
func (srv *beatService) ShareQR(ctx context.Context, beatID uuid.UUID) ([]byte, error) {
	if _, err := srv.beatRepo.FindByID(ctx, beatID); err != nil {
		return nil, mapBeatErr(err)
	}

	png, err := srv.qrCode.GenerateBeatShareQR(beatID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate share QR code")
	}

	return png, nil
}

// ResolveShareLink decodes a link produced by ShareQR and loads the beat.
func (srv *beatService) ResolveShareLink(ctx context.Context, link string, viewerID *uuid.UUID) (*usecase.BeatDetails, error) {
	beatID, err := srv.qrCode.ParseBeatShareQR(link)
	if err != nil {
		srv.log(ctx).DebugContext(ctx, "Rejected share link", slog.String("error", err.Error()))

		return nil, domainerrors.ErrInvalidShareLink
	}

	return srv.GetBeat(ctx, beatID, viewerID)
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() || !entity.IsStorableAmount(price) {
		return domainerrors.ErrInvalidPrice
	}

	return nil
}

func applyBeatUpdate(beat *entity.Beat, input *usecase.UpdateBeatInput) {
	if input.Title != nil {
		beat.Title = strings.TrimSpace(*input.Title)
	}
	if input.AuthorDisplayName != nil {
		beat.AuthorDisplayName = strings.TrimSpace(*input.AuthorDisplayName)
	}
	if input.Price != nil {
		beat.Price = *input.Price
	}
	if input.Description != nil {
		beat.Description = strings.TrimSpace(*input.Description)
	}
	if input.Tags != nil {
		beat.Tags = normalizeTags(*input.Tags)
	}
	if input.ImageRef != nil {
		beat.ImageRef = *input.ImageRef
	}
	if input.AudioRef != nil {
		beat.AudioRef = *input.AudioRef
	}
}

// normalizeTags trims, lower-cases and de-duplicates tags, keeping first occurrence order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}

	return result
}
