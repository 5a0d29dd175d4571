package service

import (
	"context"
	"time"
)

// PurchaseCompletedEvent is published after a purchase has been committed.
// Money fields are decimal strings so consumers never see binary floating point.
type PurchaseCompletedEvent struct {
	RequestID     string    `json:"request_id,omitempty"` // For distributed tracing
	TransactionID string    `json:"transaction_id"`
	BeatID        string    `json:"beat_id"`
	BuyerID       string    `json:"buyer_id"`
	SellerID      string    `json:"seller_id"`
	Amount        string    `json:"amount"`
	Commission    string    `json:"commission"`
	CompletedAt   time.Time `json:"completed_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishPurchaseCompleted publishes a purchase event for downstream consumers
	PublishPurchaseCompleted(ctx context.Context, event *PurchaseCompletedEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
