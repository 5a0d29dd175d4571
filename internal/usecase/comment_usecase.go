package usecase

import (
	"context"

	"beatmarket/internal/domain/entity"

	"github.com/google/uuid"
)

// CommentUsecase defines comment operations on beats.
type CommentUsecase interface {
	ListComments(ctx context.Context, beatID uuid.UUID, page entity.Page) (*PageResult[*entity.Comment], error)
	AddComment(ctx context.Context, userID, beatID uuid.UUID, text string) (*entity.Comment, error)
	EditComment(ctx context.Context, principal entity.Principal, commentID uuid.UUID, text string) (*entity.Comment, error)
	DeleteComment(ctx context.Context, principal entity.Principal, commentID uuid.UUID) error
}
