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

// RatingHandlerParams holds dependencies for RatingHandler, injected by Fx.
type RatingHandlerParams struct {
	fx.In

	RatingUC usecase.RatingUsecase
	Logger   *slog.Logger
}

// RatingHandler serves beat ratings.
type RatingHandler struct {
	ratingUC usecase.RatingUsecase
	logger   *slog.Logger
}

// NewRatingHandler is the constructor for RatingHandler.
func NewRatingHandler(params RatingHandlerParams) *RatingHandler {
	return &RatingHandler{
		ratingUC: params.RatingUC,
		logger:   params.Logger,
	}
}

// SubmitRatingRequest is the body of PUT /beats/:id/rating. Bounds are checked by the rating usecase.
type SubmitRatingRequest struct {
	Value int `json:"value"`
}

// SubmitRating creates or replaces the caller's rating of a beat.
func (h *RatingHandler) SubmitRating(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}
	beatID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req SubmitRatingRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid rating input")
	}

	rating, err := h.ratingUC.SubmitRating(c.Request().Context(), beatID, userID, req.Value)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, RatingResponse{
		BeatID:    rating.BeatID,
		Value:     rating.Value,
		UpdatedAt: rating.UpdatedAt,
	})
}

// GetRatingSummary returns the beat's average, count and the caller's own score.
func (h *RatingHandler) GetRatingSummary(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}
	beatID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	summary, err := h.ratingUC.GetRatingSummary(c.Request().Context(), beatID, &userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toRatingSummaryResponse(summary))
}

// ListRatings returns every rating of a beat.
func (h *RatingHandler) ListRatings(c echo.Context) error {
	beatID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ratings, err := h.ratingUC.ListRatings(c.Request().Context(), beatID)
	if err != nil {
		return errors.WithStack(err)
	}

	items := make([]*BeatRatingResponse, 0, len(ratings))
	for _, r := range ratings {
		items = append(items, &BeatRatingResponse{UserID: r.UserID, Value: r.Value, UpdatedAt: r.UpdatedAt})
	}

	return response.Success(c, http.StatusOK, items)
}

// ListRatedBeats pages through beats the caller rated, filtered by search and score.
func (h *RatingHandler) ListRatedBeats(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	page, err := bindPage(c)
	if err != nil {
		return err
	}
	score, err := parseScore(c.QueryParam("score"))
	if err != nil {
		return err
	}

	res, err := h.ratingUC.ListRatedBeats(c.Request().Context(), userID, usecase.RatedBeatFilter{
		Search: c.QueryParam("search"),
		Score:  score,
	}, page)
	if err != nil {
		return errors.WithStack(err)
	}

	items := make([]*RatedBeatResponse, 0, len(res.Items))
	for _, rb := range res.Items {
		items = append(items, &RatedBeatResponse{BeatResponse: toBeatResponse(rb.Beat), UserScore: rb.UserScore})
	}

	return response.Paged(c, items, pagination(res))
}
