package service

import (
	"context"
	"errors"
	"io"
)

// ErrMediaNotFound is returned when a media key does not exist.
var ErrMediaNotFound = errors.New("media not found")

// MediaObject describes a stored media file.
type MediaObject struct {
	Key         string
	ContentType string
	Size        int64
}

// MediaStore persists beat images, beat audio and profile photos.
type MediaStore interface {
	// Put stores the content under a new key derived from prefix and filename.
	Put(ctx context.Context, prefix, filename, contentType string, r io.Reader) (*MediaObject, error)

	// Open returns a reader for the object. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, *MediaObject, error)

	// Delete removes the object. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
