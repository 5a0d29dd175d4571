package handler

import (
	"log/slog"
	"net/http"

	"beatmarket/internal/delivery/api/middleware"
	"beatmarket/internal/delivery/api/response"
	"beatmarket/internal/domain/entity"
	"beatmarket/internal/errors"
	"beatmarket/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// BeatHandlerParams holds dependencies for BeatHandler, injected by Fx.
type BeatHandlerParams struct {
	fx.In

	BeatUC    usecase.BeatUsecase
	RankingUC usecase.RankingUsecase
	Logger    *slog.Logger
}

// BeatHandler serves the beat catalogue.
type BeatHandler struct {
	beatUC    usecase.BeatUsecase
	rankingUC usecase.RankingUsecase
	logger    *slog.Logger
}

// NewBeatHandler is the constructor for BeatHandler.
func NewBeatHandler(params BeatHandlerParams) *BeatHandler {
	return &BeatHandler{
		beatUC:    params.BeatUC,
		rankingUC: params.RankingUC,
		logger:    params.Logger,
	}
}

// CreateBeatRequest is the body of POST /beats.
type CreateBeatRequest struct {
	Title             string          `json:"title" validate:"required,max=200"`
	AuthorDisplayName string          `json:"author_display_name" validate:"max=100"`
	Price             decimal.Decimal `json:"price"`
	Description       string          `json:"description" validate:"max=5000"`
	Tags              []string        `json:"tags" validate:"max=20,dive,max=50"`
	ImageRef          string          `json:"image_ref"`
	AudioRef          string          `json:"audio_ref"`
}

// UpdateBeatRequest is the body of PUT /beats/:id. Omitted fields stay unchanged.
type UpdateBeatRequest struct {
	Title             *string          `json:"title" validate:"omitempty,max=200"`
	AuthorDisplayName *string          `json:"author_display_name" validate:"omitempty,max=100"`
	Price             *decimal.Decimal `json:"price"`
	Description       *string          `json:"description" validate:"omitempty,max=5000"`
	Tags              *[]string        `json:"tags"`
	ImageRef          *string          `json:"image_ref"`
	AudioRef          *string          `json:"audio_ref"`
}

// CreateBeat lists a new beat owned by the caller.
func (h *BeatHandler) CreateBeat(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	var req CreateBeatRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid beat input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	beat, err := h.beatUC.CreateBeat(c.Request().Context(), userID, &usecase.CreateBeatInput{
		Title:             req.Title,
		AuthorDisplayName: req.AuthorDisplayName,
		Price:             req.Price,
		Description:       req.Description,
		Tags:              req.Tags,
		ImageRef:          req.ImageRef,
		AudioRef:          req.AudioRef,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toBeatResponse(beat))
}

// GetBeat returns a beat with the caller's view of its rating.
func (h *BeatHandler) GetBeat(c echo.Context) error {
	beatID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var viewerID *uuid.UUID
	if userID, ok := middleware.GetUserID(c); ok {
		viewerID = &userID
	}

	details, err := h.beatUC.GetBeat(c.Request().Context(), beatID, viewerID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toBeatDetailsResponse(details))
}

// ListBeats searches the catalogue: search, minPrice, maxPrice, tags, page, limit.
func (h *BeatHandler) ListBeats(c echo.Context) error {
	filter, err := bindBeatFilter(c)
	if err != nil {
		return err
	}

	return h.list(c, filter)
}

// ListMyBeats lists the caller's own beats.
func (h *BeatHandler) ListMyBeats(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	filter, err := bindBeatFilter(c)
	if err != nil {
		return err
	}
	filter.OwnerUserID = &userID

	return h.list(c, filter)
}

func (h *BeatHandler) list(c echo.Context, filter entity.BeatFilter) error {
	page, err := bindPage(c)
	if err != nil {
		return err
	}

	res, err := h.beatUC.ListBeats(c.Request().Context(), filter, page)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Paged(c, toBeatResponses(res.Items), pagination(res))
}

// UpdateBeat edits a beat. Only the owner or an admin may.
func (h *BeatHandler) UpdateBeat(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}
	beatID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateBeatRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid beat input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	beat, err := h.beatUC.UpdateBeat(c.Request().Context(), principal, beatID, &usecase.UpdateBeatInput{
		Title:             req.Title,
		AuthorDisplayName: req.AuthorDisplayName,
		Price:             req.Price,
		Description:       req.Description,
		Tags:              req.Tags,
		ImageRef:          req.ImageRef,
		AudioRef:          req.AudioRef,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toBeatResponse(beat))
}

// DeleteBeat removes an unpurchased beat with its ratings and comments.
func (h *BeatHandler) DeleteBeat(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}
	beatID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.beatUC.DeleteBeat(c.Request().Context(), principal, beatID); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ShareQR renders the beat's share link as a PNG QR code.
func (h *BeatHandler) ShareQR(c echo.Context) error {
	beatID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	png, err := h.beatUC.ShareQR(c.Request().Context(), beatID)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

// ResolveShare answers GET /share?link=... with the beat behind a scanned QR code.
func (h *BeatHandler) ResolveShare(c echo.Context) error {
	link := c.QueryParam("link")
	if link == "" {
		return response.BadRequest(c, "MISSING_LINK", "link query parameter is required")
	}

	var viewerID *uuid.UUID
	if userID, ok := middleware.GetUserID(c); ok {
		viewerID = &userID
	}

	details, err := h.beatUC.ResolveShareLink(c.Request().Context(), link, viewerID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toBeatDetailsResponse(details))
}

// Popular ranks beats created in the last day, month or year by average rating.
func (h *BeatHandler) Popular(c echo.Context) error {
	period := entity.Period(c.QueryParam("period"))
	if period == "" {
		period = entity.PeriodMonth
	}

	ranked, err := h.rankingUC.RankPopular(c.Request().Context(), period)
	if err != nil {
		return errors.WithStack(err)
	}

	items := make([]*PopularBeatResponse, 0, len(ranked))
	for _, p := range ranked {
		items = append(items, &PopularBeatResponse{
			BeatResponse:  toBeatResponse(p.Beat),
			AverageRating: p.AverageRating,
			RatingsCount:  p.RatingsCount,
		})
	}

	return response.Success(c, http.StatusOK, items)
}

func bindBeatFilter(c echo.Context) (entity.BeatFilter, error) {
	minPrice, err := parseOptionalDecimal(c.QueryParam("minPrice"), "minPrice")
	if err != nil {
		return entity.BeatFilter{}, err
	}
	maxPrice, err := parseOptionalDecimal(c.QueryParam("maxPrice"), "maxPrice")
	if err != nil {
		return entity.BeatFilter{}, err
	}

	return entity.BeatFilter{
		Search:   c.QueryParam("search"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Tags:     splitTags(c.QueryParams()["tags"]),
	}, nil
}
