package usecase

import (
	"context"

	"beatmarket/internal/domain/entity"

	"github.com/google/uuid"
)

// ProfileUsecase defines the interface for profile-related business operations.
type ProfileUsecase interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input *UpdateProfileInput) (*entity.User, error)
	UpdatePhoto(ctx context.Context, userID uuid.UUID, upload *UploadInput) (*entity.User, error)
	GetPublicProfile(ctx context.Context, username string, page entity.Page) (*PublicProfile, error)
}

// UpdateProfileInput defines the editable profile fields. Nil leaves a field unchanged.
type UpdateProfileInput struct {
	Bio *string
}

// PublicProfile is what other users see of an account.
type PublicProfile struct {
	User  *entity.User
	Beats PageResult[*entity.Beat]
}
