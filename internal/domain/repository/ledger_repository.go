package repository

import (
	"context"
	"errors"

	"beatmarket/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrDuplicatePurchase is returned when the (beat, buyer) unique index rejects a ledger insert.
var ErrDuplicatePurchase = errors.New("duplicate purchase")

// LedgerRepository persists purchase transactions. Entries are append-only.
type LedgerRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	Exists(ctx context.Context, beatID, buyerID uuid.UUID) (bool, error)
	CountForBeat(ctx context.Context, beatID uuid.UUID) (int64, error)

	// ListForUser pages the user's purchases or sales, newest first.
	ListForUser(ctx context.Context, userID uuid.UUID, kind entity.TransactionKind, page entity.Page) ([]*entity.TransactionView, int64, error)
}
