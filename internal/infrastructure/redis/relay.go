package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

// EventsChannel is the pub/sub channel shared by all API instances
const EventsChannel = "crafthire:events"

type envelope struct {
	UserID string       `json:"userId"`
	Event  domain.Event `json:"event"`
}

// Deliverer hands an event to local subscribers
type Deliverer interface {
	Deliver(userID string, ev domain.Event) int
}

// Relay publishes events to Redis and delivers events received from Redis
// to the local hub, so a user connected to any instance gets them.
type Relay struct {
	client *Client
	local  Deliverer
	logger *slog.Logger
}

// NewRelay creates a relay that feeds local
func NewRelay(client *Client, local Deliverer, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{client: client, local: local, logger: logger}
}

// Publish implements domain.EventPublisher
func (r *Relay) Publish(ctx context.Context, userID string, ev domain.Event) error {
	payload, err := json.Marshal(envelope{UserID: userID, Event: ev})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := r.client.rdb.Publish(ctx, EventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Run forwards channel messages to the local hub until ctx is done
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.rdb.Subscribe(ctx, EventsChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", EventsChannel, err)
	}
	r.logger.Info("event relay subscribed", slog.String("channel", EventsChannel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("event relay stopped")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.forward(msg.Payload)
		}
	}
}

// forward decodes one channel message and hands it to the local hub
func (r *Relay) forward(payload string) bool {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		r.logger.Warn("discarding malformed event", slog.String("error", err.Error()))
		return false
	}
	if env.UserID == "" {
		r.logger.Warn("discarding event without recipient", slog.String("type", string(env.Event.Type)))
		return false
	}
	r.local.Deliver(env.UserID, env.Event)
	return true
}
