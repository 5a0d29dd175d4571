package impl

import (
	"bytes"

	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/domain/repository"
	"beatmarket/internal/errors"

	"github.com/google/uuid"
)

func mapBeatErr(err error) error {
	if errors.Is(err, repository.ErrBeatNotFound) {
		return domainerrors.ErrBeatNotFound
	}

	return errors.Wrap(err, "failed to load beat")
}

func mapUserErr(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return domainerrors.ErrUserNotFound
	}

	return errors.Wrap(err, "failed to load user")
}

func mapCommentErr(err error) error {
	if errors.Is(err, repository.ErrCommentNotFound) {
		return domainerrors.ErrCommentNotFound
	}

	return errors.Wrap(err, "failed to load comment")
}

// compareUUID orders ids byte-wise, the same order PostgreSQL uses for the uuid type.
func compareUUID(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}
