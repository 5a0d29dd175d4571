// Package storage keeps beat media and profile photos in a gocloud.dev bucket.
package storage

import (
	"context"
	"io"
	"log/slog"
	"path"
	"strings"

	"beatmarket/config"
	"beatmarket/internal/domain/service"
	"beatmarket/internal/errors"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

type blobStore struct {
	bucket *blob.Bucket
	logger *slog.Logger
}

// MediaStoreParams holds dependencies for the MediaStore, injected by Fx
type MediaStoreParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewMediaStore opens the bucket named by media.bucketURL and closes it on shutdown.
func NewMediaStore(params MediaStoreParams) (service.MediaStore, error) {
	store, err := OpenBlobStore(params.Ctx, params.Config.Media.BucketURL, params.Logger)
	if err != nil {
		return nil, err
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			params.Logger.Info("Closing media bucket")

			return store.Close()
		},
	})

	return store, nil
}

// OpenBlobStore opens a bucket by URL. mem:// and file:// schemes are linked in.
func OpenBlobStore(ctx context.Context, bucketURL string, logger *slog.Logger) (service.MediaStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bucket %s", bucketURL)
	}
	logger.Info("Media bucket opened", slog.String("url", bucketURL))

	return &blobStore{bucket: bucket, logger: logger}, nil
}

func (s *blobStore) Put(ctx context.Context, prefix, filename, contentType string, r io.Reader) (*service.MediaObject, error) {
	key := path.Join(prefix, uuid.NewString()+strings.ToLower(path.Ext(filename)))
	if err := validateKey(key); err != nil {
		return nil, err
	}

	// Cancelling the writer context before Close discards the partial object.
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := s.bucket.NewWriter(writeCtx, key, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create blob writer")
	}

	size, err := io.Copy(w, r)
	if err != nil {
		cancel()
		_ = w.Close()

		return nil, errors.Wrap(err, "failed to write blob")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to commit blob")
	}

	return &service.MediaObject{Key: key, ContentType: contentType, Size: size}, nil
}

func (s *blobStore) Open(ctx context.Context, key string) (io.ReadCloser, *service.MediaObject, error) {
	if err := validateKey(key); err != nil {
		return nil, nil, service.ErrMediaNotFound
	}

	attrs, err := s.bucket.Attributes(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, nil, service.ErrMediaNotFound
		}

		return nil, nil, errors.Wrap(err, "failed to read blob attributes")
	}

	rc, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, nil, service.ErrMediaNotFound
		}

		return nil, nil, errors.Wrap(err, "failed to open blob")
	}

	return rc, &service.MediaObject{Key: key, ContentType: attrs.ContentType, Size: attrs.Size}, nil
}

func (s *blobStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := validateKey(key); err != nil {
		return err
	}

	if err := s.bucket.Delete(ctx, key); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return errors.Wrap(err, "failed to delete blob")
	}

	return nil
}

func (s *blobStore) Close() error {
	return s.bucket.Close()
}

// validateKey rejects keys that could escape the bucket root on file:// buckets.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return errors.Errorf("invalid media key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return errors.Errorf("invalid media key %q", key)
		}
	}

	return nil
}
