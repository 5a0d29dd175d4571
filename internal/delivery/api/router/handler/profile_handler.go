package handler

import (
	"log/slog"
	"net/http"

	"beatmarket/internal/delivery/api/middleware"
	"beatmarket/internal/delivery/api/response"
	"beatmarket/internal/domain/entity"
	"beatmarket/internal/errors"
	"beatmarket/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// ProfileHandlerParams holds dependencies for ProfileHandler, injected by Fx.
type ProfileHandlerParams struct {
	fx.In

	ProfileUC  usecase.ProfileUsecase
	PurchaseUC usecase.PurchaseUsecase
	Logger     *slog.Logger
}

// ProfileHandler serves the caller's account, balance and ledger, and public profiles.
type ProfileHandler struct {
	profileUC  usecase.ProfileUsecase
	purchaseUC usecase.PurchaseUsecase
	logger     *slog.Logger
}

// NewProfileHandler is the constructor for ProfileHandler.
func NewProfileHandler(params ProfileHandlerParams) *ProfileHandler {
	return &ProfileHandler{
		profileUC:  params.ProfileUC,
		purchaseUC: params.PurchaseUC,
		logger:     params.Logger,
	}
}

// UpdateProfileRequest is the body of PUT /profile.
type UpdateProfileRequest struct {
	Bio *string `json:"bio"`
}

// TopUpRequest is the body of PUT /profile/balance.
type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// GetProfile returns the caller's account.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	user, err := h.profileUC.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponse(user))
}

// UpdateProfile edits the caller's bio.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid profile input")
	}

	user, err := h.profileUC.UpdateProfile(c.Request().Context(), userID, &usecase.UpdateProfileInput{Bio: req.Bio})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponse(user))
}

// UpdatePhoto replaces the caller's profile photo with the uploaded image.
func (h *ProfileHandler) UpdatePhoto(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	upload, closeFn, err := readUpload(c, usecase.MediaKindImage)
	if err != nil {
		return err
	}
	defer closeFn()

	user, err := h.profileUC.UpdatePhoto(c.Request().Context(), userID, upload)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponse(user))
}

// TopUp credits the caller's balance.
func (h *ProfileHandler) TopUp(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	var req TopUpRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "amount must be a number")
	}

	balance, err := h.purchaseUC.TopUp(c.Request().Context(), userID, req.Amount)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, BalanceResponse{Balance: money(balance)})
}

// ListTransactions pages through the caller's purchases or sales.
func (h *ProfileHandler) ListTransactions(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	page, err := bindPage(c)
	if err != nil {
		return err
	}
	kind := entity.TransactionKind(c.QueryParam("type"))
	if kind == "" {
		kind = entity.TransactionKindPurchases
	}

	res, err := h.purchaseUC.ListTransactions(c.Request().Context(), userID, kind, page)
	if err != nil {
		return errors.WithStack(err)
	}

	items := make([]*TransactionResponse, 0, len(res.Items))
	for _, v := range res.Items {
		item := toTransactionResponse(&v.Transaction)
		item.BeatTitle = v.BeatTitle
		item.CounterpartyUsername = v.CounterpartyUsername
		items = append(items, item)
	}

	return response.Paged(c, items, pagination(res))
}

// GetPublicProfile returns another user's profile and a page of their beats.
func (h *ProfileHandler) GetPublicProfile(c echo.Context) error {
	page, err := bindPage(c)
	if err != nil {
		return err
	}

	profile, err := h.profileUC.GetPublicProfile(c.Request().Context(), c.Param("username"), page)
	if err != nil {
		return errors.WithStack(err)
	}

	u := profile.User

	return response.Paged(c, PublicProfileResponse{
		User: &PublicUserResponse{
			ID:       u.ID,
			Username: u.Username,
			PhotoRef: u.PhotoRef,
			Bio:      u.Bio,
		},
		Beats: toBeatResponses(profile.Beats.Items),
	}, pagination(&profile.Beats))
}
