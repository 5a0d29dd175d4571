package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is an immutable ledger entry of a completed purchase.
// Amount is the beat price at purchase time; Commission is the platform share of it.
type Transaction struct {
	ID           uuid.UUID
	BeatID       uuid.UUID
	BuyerUserID  uuid.UUID
	SellerUserID uuid.UUID
	Amount       decimal.Decimal
	Commission   decimal.Decimal
	CreatedAt    time.Time
}

// SellerAmount is the part of Amount credited to the seller.
func (t *Transaction) SellerAmount() decimal.Decimal {
	return t.Amount.Sub(t.Commission)
}

// TransactionKind selects which side of the ledger a user listing shows.
type TransactionKind string

const (
	TransactionKindPurchases TransactionKind = "purchases"
	TransactionKindSales     TransactionKind = "sales"
)

// IsValid checks if the kind is a valid value.
func (k TransactionKind) IsValid() bool {
	return k == TransactionKindPurchases || k == TransactionKindSales
}

// TransactionView is a ledger entry enriched for display.
type TransactionView struct {
	Transaction
	BeatTitle            string // empty when the beat no longer exists
	CounterpartyUsername string
}
