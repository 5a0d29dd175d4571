package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionModel mirrors the append-only 'transactions' ledger. The unique index on
// (beat_id, buyer_user_id) is the final guard against double purchases.
type TransactionModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BeatID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_transactions_beat_buyer,priority:1"`
	BuyerUserID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_transactions_beat_buyer,priority:2;index"`
	SellerUserID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Commission   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt    time.Time       `gorm:"index"`
}

// TableName explicitly sets the table name for GORM.
func (TransactionModel) TableName() string {
	return "transactions"
}
