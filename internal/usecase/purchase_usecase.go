package usecase

import (
	"context"

	"beatmarket/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseInput identifies the beat being bought and the buyer.
type PurchaseInput struct {
	BeatID  uuid.UUID
	BuyerID uuid.UUID
}

// PurchaseResult is the ledger entry created by a purchase and the buyer's balance after it.
type PurchaseResult struct {
	Transaction     *entity.Transaction
	BuyerNewBalance decimal.Decimal
}

// PurchaseUsecase moves balance between buyers, sellers and the platform account.
type PurchaseUsecase interface {
	Purchase(ctx context.Context, input *PurchaseInput) (*PurchaseResult, error)

	// TopUp credits the user's balance and returns the new balance.
	TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)

	ListTransactions(ctx context.Context, userID uuid.UUID, kind entity.TransactionKind, page entity.Page) (*PageResult[*entity.TransactionView], error)
}
