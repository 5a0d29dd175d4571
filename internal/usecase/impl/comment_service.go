package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	deliverycontext "beatmarket/internal/delivery/context"
	"beatmarket/internal/domain/entity"
	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/domain/policy"
	"beatmarket/internal/domain/repository"
	"beatmarket/internal/errors"
	"beatmarket/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

const (
	defaultCommentsPageSize = 10
	maxCommentLength        = 2000
)

// commentService implements the CommentUsecase interface.
type commentService struct {
	txManager   repository.TransactionManager
	userRepo    repository.UserRepository
	beatRepo    repository.BeatRepository
	commentRepo repository.CommentRepository
	now         func() time.Time
	logger      *slog.Logger
}

// CommentServiceParams holds dependencies for CommentService, injected by Fx.
type CommentServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	UserRepo    repository.UserRepository
	BeatRepo    repository.BeatRepository
	CommentRepo repository.CommentRepository
	Logger      *slog.Logger
}

// NewCommentService is the constructor for commentService.
func NewCommentService(params CommentServiceParams) usecase.CommentUsecase {
	return &commentService{
		txManager:   params.TxManager,
		userRepo:    params.UserRepo,
		beatRepo:    params.BeatRepo,
		commentRepo: params.CommentRepo,
		now:         time.Now,
		logger:      params.Logger,
	}
}

func (srv *commentService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ListComments pages a beat's comments, newest first.
func (srv *commentService) ListComments(ctx context.Context, beatID uuid.UUID, page entity.Page) (*usecase.PageResult[*entity.Comment], error) {
	if _, err := srv.beatRepo.FindByID(ctx, beatID); err != nil {
		return nil, mapBeatErr(err)
	}

	page = page.Normalize(defaultCommentsPageSize, maxPageSize)
	comments, total, err := srv.commentRepo.ListByBeat(ctx, beatID, page)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list comments")
	}

	return &usecase.PageResult[*entity.Comment]{Items: comments, Total: total, Page: page}, nil
}

// AddComment posts a comment on an existing beat.
func (srv *commentService) AddComment(ctx context.Context, userID, beatID uuid.UUID, text string) (*entity.Comment, error) {
	text, err := validateCommentText(text)
	if err != nil {
		return nil, err
	}

	if _, err := srv.beatRepo.FindByID(ctx, beatID); err != nil {
		return nil, mapBeatErr(err)
	}

	author, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapUserErr(err)
	}

	now := srv.now().UTC()
	comment := &entity.Comment{
		ID:             uuid.New(),
		BeatID:         beatID,
		UserID:         author.ID,
		AuthorUsername: author.Username,
		Text:           text,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := srv.commentRepo.Create(ctx, comment); err != nil {
		return nil, errors.Wrap(err, "failed to create comment")
	}

	srv.log(ctx).Debug("Comment added", slog.Any("commentID", comment.ID), slog.Any("beatID", beatID))

	return comment, nil
}

// EditComment replaces the text of a comment the principal may modify.
func (srv *commentService) EditComment(ctx context.Context, principal entity.Principal, commentID uuid.UUID, text string) (*entity.Comment, error) {
	text, err := validateCommentText(text)
	if err != nil {
		return nil, err
	}

	var updated *entity.Comment
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := srv.authorizeComment(ctx, repoFactory, principal, commentID); err != nil {
			return err
		}

		comment, err := repoFactory.CommentRepo().UpdateText(ctx, commentID, text)
		if err != nil {
			return mapCommentErr(err)
		}
		updated = comment

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteComment removes a comment the principal may modify.
func (srv *commentService) DeleteComment(ctx context.Context, principal entity.Principal, commentID uuid.UUID) error {
	return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := srv.authorizeComment(ctx, repoFactory, principal, commentID); err != nil {
			return err
		}

		if err := repoFactory.CommentRepo().Delete(ctx, commentID); err != nil {
			return mapCommentErr(err)
		}

		return nil
	})
}

func (srv *commentService) authorizeComment(ctx context.Context, repoFactory repository.RepositoryFactory, principal entity.Principal, commentID uuid.UUID) error {
	comment, err := repoFactory.CommentRepo().FindByID(ctx, commentID)
	if err != nil {
		return mapCommentErr(err)
	}

	beat, err := repoFactory.BeatRepo().FindByID(ctx, comment.BeatID)
	switch {
	case errors.Is(err, repository.ErrBeatNotFound):
		beat = nil
	case err != nil:
		return errors.Wrap(err, "failed to load commented beat")
	}

	if !policy.CanModifyComment(principal, comment, beat) {
		return domainerrors.ErrForbidden.WithDetails("only the author, the beat owner or an admin can change this comment")
	}

	return nil
}

func validateCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domainerrors.ErrValidationFailed.WithDetails("comment text is required")
	}
	if utf8.RuneCountInString(text) > maxCommentLength {
		return "", domainerrors.ErrValidationFailed.WithDetails("comment text is too long")
	}

	return text, nil
}
