package repository

import (
	"context"
	"errors"

	"beatmarket/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrCommentNotFound is returned when a comment id does not resolve.
var ErrCommentNotFound = errors.New("comment not found")

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error)
	ListByBeat(ctx context.Context, beatID uuid.UUID, page entity.Page) ([]*entity.Comment, int64, error)
	Create(ctx context.Context, comment *entity.Comment) error
	UpdateText(ctx context.Context, id uuid.UUID, text string) (*entity.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByBeat(ctx context.Context, beatID uuid.UUID) error
}
