package usecase

import (
	"context"
	"io"

	"beatmarket/internal/domain/service"

	"github.com/google/uuid"
)

// MediaKind groups uploads by what they are used for.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindAudio MediaKind = "audio"
)

// IsValid checks if the MediaKind is a valid value.
func (k MediaKind) IsValid() bool {
	return k == MediaKindImage || k == MediaKindAudio
}

// UploadInput carries one uploaded file.
type UploadInput struct {
	Kind        MediaKind
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// MediaUsecase stores and serves beat images, beat audio and profile photos.
type MediaUsecase interface {
	Upload(ctx context.Context, userID uuid.UUID, input *UploadInput) (*service.MediaObject, error)
	Open(ctx context.Context, key string) (io.ReadCloser, *service.MediaObject, error)
}
