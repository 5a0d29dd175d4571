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

// PurchaseHandlerParams holds dependencies for PurchaseHandler, injected by Fx.
type PurchaseHandlerParams struct {
	fx.In

	PurchaseUC usecase.PurchaseUsecase
	Logger     *slog.Logger
}

// PurchaseHandler serves beat purchases.
type PurchaseHandler struct {
	purchaseUC usecase.PurchaseUsecase
	logger     *slog.Logger
}

// NewPurchaseHandler is the constructor for PurchaseHandler.
func NewPurchaseHandler(params PurchaseHandlerParams) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseUC: params.PurchaseUC,
		logger:     params.Logger,
	}
}

// Purchase buys the beat for the caller at its current price.
func (h *PurchaseHandler) Purchase(c echo.Context) error {
	buyerID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}
	beatID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	res, err := h.purchaseUC.Purchase(c.Request().Context(), &usecase.PurchaseInput{
		BeatID:  beatID,
		BuyerID: buyerID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, PurchaseResponse{
		Transaction:     toTransactionResponse(res.Transaction),
		BuyerNewBalance: money(res.BuyerNewBalance),
	})
}
