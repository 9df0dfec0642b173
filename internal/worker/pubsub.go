package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Acknowledger settles a received message.
type Acknowledger interface {
	Ack()
	Nack()
}

// PubSubHandler feeds Pub/Sub messages to a Processor.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	processor        *Processor
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Processor        *Processor
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("pubsub project id is required")
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Planning jobs fan out to several provider calls; keep few in flight.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 4
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		processor:        cfg.Processor,
		logger:           cfg.Logger,
	}, nil
}

// Start processes messages until ctx is canceled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Time("publish_time", msg.PublishTime).
			Logger()
		Settle(ctx, h.processor, msg.Data, msg, logger)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// Settle processes data and acks the message on success or permanent
// failure. Transient failures are nacked for redelivery.
func Settle(ctx context.Context, p *Processor, data []byte, ack Acknowledger, logger zerolog.Logger) {
	start := time.Now()

	err := p.Process(ctx, data)
	switch {
	case err == nil:
		logger.Info().Dur("duration", time.Since(start)).Msg("job completed")
		ack.Ack()
	case errors.Is(err, ErrPermanent):
		logger.Warn().Err(err).Msg("job rejected")
		ack.Ack()
	default:
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("job failed, will be redelivered")
		ack.Nack()
	}
}
