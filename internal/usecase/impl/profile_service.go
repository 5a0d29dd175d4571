package impl

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"beatmarket/config"
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

const maxBioLength = 1000

// profileService implements the ProfileUsecase interface.
type profileService struct {
	userRepo      repository.UserRepository
	beatRepo      repository.BeatRepository
	media         service.MediaStore
	maxUploadSize int64
	logger        *slog.Logger
}

// ProfileServiceParams holds dependencies for ProfileService, injected by Fx.
type ProfileServiceParams struct {
	fx.In

	UserRepo repository.UserRepository
	BeatRepo repository.BeatRepository
	Media    service.MediaStore
	Config   *config.Config
	Logger   *slog.Logger
}

// NewProfileService is the constructor for profileService.
func NewProfileService(params ProfileServiceParams) usecase.ProfileUsecase {
	return &profileService{
		userRepo:      params.UserRepo,
		beatRepo:      params.BeatRepo,
		media:         params.Media,
		maxUploadSize: params.Config.Media.MaxUploadSize,
		logger:        params.Logger,
	}
}

func (srv *profileService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetProfile retrieves the user's own profile.
func (srv *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapUserErr(err)
	}

	return user, nil
}

// UpdateProfile writes the editable fields of the user's profile.
func (srv *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input *usecase.UpdateProfileInput) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapUserErr(err)
	}

	if input.Bio != nil {
		bio := strings.TrimSpace(*input.Bio)
		if len([]rune(bio)) > maxBioLength {
			return nil, domainerrors.ErrValidationFailed.WithDetails("bio is too long")
		}
		user.Bio = bio
	}

	if err := srv.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, mapUserErr(err)
	}

	return user, nil
}

// UpdatePhoto stores a new profile photo and removes the previous one.
func (srv *profileService) UpdatePhoto(ctx context.Context, userID uuid.UUID, upload *usecase.UploadInput) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapUserErr(err)
	}

	upload.Kind = usecase.MediaKindImage
	obj, err := storeUpload(ctx, srv.media, srv.maxUploadSize, path.Join("users", userID.String()), upload, srv.log(ctx))
	if err != nil {
		return nil, err
	}

	previous := user.PhotoRef
	user.PhotoRef = obj.Key
	if err := srv.userRepo.UpdateProfile(ctx, user); err != nil {
		if delErr := srv.media.Delete(ctx, obj.Key); delErr != nil {
			srv.log(ctx).Warn("Failed to remove orphaned photo", slog.String("key", obj.Key), slog.Any("error", delErr))
		}

		return nil, errors.Wrap(mapUserErr(err), "failed to save photo reference")
	}

	if previous != "" {
		if err := srv.media.Delete(ctx, previous); err != nil {
			srv.log(ctx).Warn("Failed to remove previous photo", slog.String("key", previous), slog.Any("error", err))
		}
	}

	return user, nil
}

// GetPublicProfile returns a user's public profile with one page of their beats.
func (srv *profileService) GetPublicProfile(ctx context.Context, username string, page entity.Page) (*usecase.PublicProfile, error) {
	user, err := srv.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, mapUserErr(err)
	}

	page = page.Normalize(defaultBeatsPageSize, defaultBeatsPageSize)
	beats, total, err := srv.beatRepo.List(ctx, entity.BeatFilter{OwnerUserID: &user.ID}, page)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list user beats")
	}

	return &usecase.PublicProfile{
		User:  user,
		Beats: usecase.PageResult[*entity.Beat]{Items: beats, Total: total, Page: page},
	}, nil
}
