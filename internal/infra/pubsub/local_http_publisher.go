package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	deliverycontext "beatmarket/internal/delivery/context"
	"beatmarket/internal/domain/service"
	"beatmarket/internal/errors"
)

const (
	localSubscription  = "projects/local/subscriptions/purchase-completed-sub"
	localPushTimeout   = 10 * time.Second
	maxDrainedRespBody = 4 << 10
)

// PushEnvelope is the JSON body Pub/Sub push subscriptions deliver to HTTP endpoints.
type PushEnvelope struct {
	Message      PushedMessage `json:"message"`
	Subscription string        `json:"subscription"`
}

// PushedMessage carries base64 data, which encoding/json produces for []byte.
type PushedMessage struct {
	Data        []byte            `json:"data"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	MessageID   string            `json:"messageId"`
	PublishTime time.Time         `json:"publishTime"`
}

// localHTTPPublisher stands in for a push subscription while developing against a local consumer.
type localHTTPPublisher struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewLocalHTTPPublisher creates a publisher that POSTs every event to endpoint
func NewLocalHTTPPublisher(endpoint string, logger *slog.Logger) service.EventPublisher {
	return &localHTTPPublisher{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: localPushTimeout},
		logger:     logger,
		now:        time.Now,
	}
}

func (p *localHTTPPublisher) envelope(event *service.PurchaseCompletedEvent) (*PushEnvelope, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &PushEnvelope{
		Subscription: localSubscription,
		Message: PushedMessage{
			Data:        data,
			Attributes:  eventAttributes(event),
			MessageID:   event.TransactionID,
			PublishTime: p.now().UTC().Truncate(time.Second),
		},
	}, nil
}

// PublishPurchaseCompleted delivers the event synchronously; any non-2xx reply is an error.
func (p *localHTTPPublisher) PublishPurchaseCompleted(ctx context.Context, event *service.PurchaseCompletedEvent) error {
	env, err := p.envelope(event)
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if event.RequestID != "" {
		req.Header.Set(deliverycontext.HeaderXRequestID, event.RequestID)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "push purchase event")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainedRespBody))

	if resp.StatusCode/100 != 2 {
		return errors.Errorf("push endpoint %s answered %d", p.endpoint, resp.StatusCode)
	}

	p.logger.DebugContext(ctx, "[LocalPubSub] Event pushed",
		slog.String("transaction_id", event.TransactionID),
		slog.Int("status", resp.StatusCode),
	)

	return nil
}

func (p *localHTTPPublisher) Close() error {
	p.httpClient.CloseIdleConnections()

	return nil
}
