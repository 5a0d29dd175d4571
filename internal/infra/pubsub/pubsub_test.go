package pubsub

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"beatmarket/config"
	"beatmarket/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvent() *service.PurchaseCompletedEvent {
	return &service.PurchaseCompletedEvent{
		RequestID:     "req-1",
		TransactionID: "tx-1",
		BeatID:        "beat-1",
		BuyerID:       "buyer-1",
		SellerID:      "seller-1",
		Amount:        "100.00",
		Commission:    "3.00",
		CompletedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestLocalHTTPPublisher_Publish(t *testing.T) {
	var received PushEnvelope
	var requestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-Id")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	publisher := NewLocalHTTPPublisher(server.URL, newDiscardLogger())
	require.NoError(t, publisher.PublishPurchaseCompleted(context.Background(), testEvent()))

	assert.Equal(t, "req-1", requestID)
	assert.Equal(t, "tx-1", received.Message.MessageID)
	assert.Equal(t, "purchase.completed", received.Message.Attributes["event_type"])
	assert.Equal(t, "beat-1", received.Message.Attributes["beat_id"])

	assert.Equal(t, localSubscription, received.Subscription)
	assert.False(t, received.Message.PublishTime.IsZero())

	var event service.PurchaseCompletedEvent
	require.NoError(t, json.Unmarshal(received.Message.Data, &event))
	assert.Equal(t, "100.00", event.Amount)
	assert.Equal(t, "3.00", event.Commission)
}

func TestLocalHTTPPublisher_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	publisher := NewLocalHTTPPublisher(server.URL, newDiscardLogger())
	err := publisher.PublishPurchaseCompleted(context.Background(), testEvent())
	assert.ErrorContains(t, err, "500")
}

func TestNewEventPublisher(t *testing.T) {
	newParams := func(cfg *config.PubSubConfig) PublisherParams {
		return PublisherParams{
			Lc:     fxtest.NewLifecycle(t),
			Ctx:    context.Background(),
			Config: &config.Config{PubSub: cfg},
			Logger: newDiscardLogger(),
		}
	}

	publisher, err := NewEventPublisher(newParams(nil))
	require.NoError(t, err)
	assert.IsType(t, &noopPublisher{}, publisher)
	assert.NoError(t, publisher.PublishPurchaseCompleted(context.Background(), testEvent()))

	publisher, err = NewEventPublisher(newParams(&config.PubSubConfig{Provider: ProviderLocal, LocalEndpoint: "http://localhost:9/push"}))
	require.NoError(t, err)
	assert.IsType(t, &localHTTPPublisher{}, publisher)

	_, err = NewEventPublisher(newParams(&config.PubSubConfig{Provider: ProviderLocal}))
	assert.Error(t, err)

	_, err = NewEventPublisher(newParams(&config.PubSubConfig{Provider: ProviderGoogle}))
	assert.Error(t, err)

	_, err = NewEventPublisher(newParams(&config.PubSubConfig{Provider: "kafka"}))
	assert.Error(t, err)
}
