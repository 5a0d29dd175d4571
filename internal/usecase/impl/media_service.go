package impl

import (
	"context"
	"io"
	"log/slog"
	"path"
	"strings"

	"beatmarket/config"
	deliverycontext "beatmarket/internal/delivery/context"
	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/domain/service"
	"beatmarket/internal/errors"
	"beatmarket/internal/usecase"
	"beatmarket/internal/util"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// mediaService implements the MediaUsecase interface.
type mediaService struct {
	store         service.MediaStore
	maxUploadSize int64
	logger        *slog.Logger
}

// MediaServiceParams holds dependencies for MediaService, injected by Fx.
type MediaServiceParams struct {
	fx.In

	Store  service.MediaStore
	Config *config.Config
	Logger *slog.Logger
}

// NewMediaService is the constructor for mediaService.
func NewMediaService(params MediaServiceParams) usecase.MediaUsecase {
	return &mediaService{
		store:         params.Store,
		maxUploadSize: params.Config.Media.MaxUploadSize,
		logger:        params.Logger,
	}
}

func (srv *mediaService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Upload stores an image or audio file under the uploader's prefix.
func (srv *mediaService) Upload(ctx context.Context, userID uuid.UUID, input *usecase.UploadInput) (*service.MediaObject, error) {
	return storeUpload(ctx, srv.store, srv.maxUploadSize, path.Join("beats", userID.String(), string(input.Kind)), input, srv.log(ctx))
}

// Open streams a stored object.
func (srv *mediaService) Open(ctx context.Context, key string) (io.ReadCloser, *service.MediaObject, error) {
	rc, obj, err := srv.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, service.ErrMediaNotFound) {
			return nil, nil, domainerrors.ErrMediaNotFound
		}

		return nil, nil, errors.Wrap(err, "failed to open media")
	}

	return rc, obj, nil
}

func validateUpload(input *usecase.UploadInput, maxSize int64) error {
	if !input.Kind.IsValid() {
		return domainerrors.ErrValidationFailed.WithDetails("kind must be image or audio")
	}
	if input.Size > maxSize {
		return domainerrors.ErrMediaTooLarge.WithDetails("limit is " + util.FormatBytes(maxSize))
	}
	if !strings.HasPrefix(strings.ToLower(input.ContentType), string(input.Kind)+"/") {
		return domainerrors.ErrValidationFailed.WithDetails("content type " + input.ContentType + " is not an " + string(input.Kind) + " type")
	}

	return nil
}

func storeUpload(ctx context.Context, store service.MediaStore, maxSize int64, prefix string, input *usecase.UploadInput, logger *slog.Logger) (*service.MediaObject, error) {
	if err := validateUpload(input, maxSize); err != nil {
		return nil, err
	}

	obj, err := store.Put(ctx, prefix, input.Filename, input.ContentType, io.LimitReader(input.Body, maxSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to store media")
	}
	if obj.Size > maxSize {
		if err := store.Delete(ctx, obj.Key); err != nil {
			logger.Warn("Failed to remove oversized upload", slog.String("key", obj.Key), slog.Any("error", err))
		}

		return nil, domainerrors.ErrMediaTooLarge.WithDetails("limit is " + util.FormatBytes(maxSize))
	}

	logger.Debug("Media stored", slog.String("key", obj.Key), slog.String("size", util.FormatBytes(obj.Size)))

	return obj, nil
}
