package handler

import (
	"log/slog"
	"net/http"

	"beatmarket/internal/delivery/api/middleware"
	"beatmarket/internal/delivery/api/response"
	"beatmarket/internal/errors"
	"beatmarket/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// CommentHandlerParams holds dependencies for CommentHandler, injected by Fx.
type CommentHandlerParams struct {
	fx.In

	CommentUC usecase.CommentUsecase
	Logger    *slog.Logger
}

// CommentHandler serves comments on beats.
type CommentHandler struct {
	commentUC usecase.CommentUsecase
	logger    *slog.Logger
}

// NewCommentHandler is the constructor for CommentHandler.
func NewCommentHandler(params CommentHandlerParams) *CommentHandler {
	return &CommentHandler{
		commentUC: params.CommentUC,
		logger:    params.Logger,
	}
}

// CommentRequest is the body of comment creation and edits.
type CommentRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

// ListComments pages through a beat's comments, newest first.
func (h *CommentHandler) ListComments(c echo.Context) error {
	beatID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	page, err := bindPage(c)
	if err != nil {
		return err
	}

	res, err := h.commentUC.ListComments(c.Request().Context(), beatID, page)
	if err != nil {
		return errors.WithStack(err)
	}

	items := make([]*CommentResponse, 0, len(res.Items))
	for _, cm := range res.Items {
		items = append(items, toCommentResponse(cm))
	}

	return response.Paged(c, items, pagination(res))
}

// AddComment comments on a beat as the caller.
func (h *CommentHandler) AddComment(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}
	beatID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid comment input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	cm, err := h.commentUC.AddComment(c.Request().Context(), userID, beatID, req.Text)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toCommentResponse(cm))
}

// EditComment replaces a comment's text as its author, the beat owner or an admin.
func (h *CommentHandler) EditComment(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}
	commentID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid comment input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	cm, err := h.commentUC.EditComment(c.Request().Context(), principal, commentID, req.Text)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toCommentResponse(cm))
}

// DeleteComment removes a comment.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}
	commentID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.commentUC.DeleteComment(c.Request().Context(), principal, commentID); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
