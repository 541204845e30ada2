package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/ibrahim-qi/sesh-app/internal/metrics"
	"github.com/rs/zerolog"
)

const channelPrefix = "sesh:session:"

func channel(sessionID string) string {
	return channelPrefix + sessionID
}

// RedisBroker shares events between server instances through Redis pub/sub.
type RedisBroker struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewRedisBroker(client *redis.Client, logger zerolog.Logger) *RedisBroker {
	return &RedisBroker{client: client, logger: logger}
}

func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.client.Publish(ctx, channel(ev.SessionID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, sessionID string) (<-chan Event, error) {
	pubsub := b.client.Subscribe(ctx, channel(sessionID))
	// wait for the subscription to be confirmed so no publish is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to session %s: %w", sessionID, err)
	}
	metrics.AddSubscribers(1)

	out := make(chan Event, constants.SubscriberBuffer)
	msgs := pubsub.Channel()

	go func() {
		defer func() {
			pubsub.Close()
			close(out)
			metrics.AddSubscribers(-1)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn().Err(err).Str("channel", msg.Channel).Msg("skipping malformed event")
					continue
				}
				select {
				case out <- ev:
				default:
					b.logger.Warn().
						Str("session_id", sessionID).
						Str("kind", string(ev.Kind)).
						Msg("dropping event for slow subscriber")
				}
			}
		}
	}()

	return out, nil
}
