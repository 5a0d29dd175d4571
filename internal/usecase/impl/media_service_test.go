package impl

import (
	"context"
	"io"
	"strings"
	"testing"

	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMediaService(media *fakeMediaStore) *mediaService {
	return NewMediaService(MediaServiceParams{
		Store:  media,
		Config: newTestConfig(),
		Logger: newDiscardLogger(),
	}).(*mediaService)
}

func TestMediaService_UploadAndOpen(t *testing.T) {
	ctx := context.Background()
	media := newFakeMediaStore()
	srv := newTestMediaService(media)
	userID := uuid.New()

	obj, err := srv.Upload(ctx, userID, &usecase.UploadInput{
		Kind:        usecase.MediaKindAudio,
		Filename:    "loop.mp3",
		ContentType: "audio/mpeg",
		Size:        4,
		Body:        strings.NewReader("riff"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.Key, "beats/"+userID.String()+"/audio/"))
	assert.True(t, strings.HasSuffix(obj.Key, ".mp3"))

	rc, _, err := srv.Open(ctx, obj.Key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "riff", string(data))

	_, _, err = srv.Open(ctx, "beats/missing")
	assert.ErrorIs(t, err, domainerrors.ErrMediaNotFound)
}

func TestMediaService_UploadValidation(t *testing.T) {
	ctx := context.Background()
	limit := newTestConfig().Media.MaxUploadSize

	tests := []struct {
		name    string
		input   *usecase.UploadInput
		wantErr error
	}{
		{
			name:    "unknown kind",
			input:   &usecase.UploadInput{Kind: "video", ContentType: "video/mp4", Body: strings.NewReader("x")},
			wantErr: domainerrors.ErrValidationFailed,
		},
		{
			name:    "content type does not match kind",
			input:   &usecase.UploadInput{Kind: usecase.MediaKindImage, ContentType: "audio/mpeg", Body: strings.NewReader("x")},
			wantErr: domainerrors.ErrValidationFailed,
		},
		{
			name:    "declared size too large",
			input:   &usecase.UploadInput{Kind: usecase.MediaKindImage, ContentType: "image/png", Size: limit + 1, Body: strings.NewReader("x")},
			wantErr: domainerrors.ErrMediaTooLarge,
		},
		{
			name:    "body larger than declared",
			input:   &usecase.UploadInput{Kind: usecase.MediaKindImage, ContentType: "image/png", Size: 1, Body: strings.NewReader(strings.Repeat("x", int(limit)+10))},
			wantErr: domainerrors.ErrMediaTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			media := newFakeMediaStore()
			srv := newTestMediaService(media)

			_, err := srv.Upload(ctx, uuid.New(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, media.objects)
		})
	}
}
