package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"aquajudge/contexts/contest-judging/contest-engine/ports"

	"github.com/redis/go-redis/v9"
)

const redisChannelPrefix = "aquajudge:events:"

// RedisBus carries envelopes over Redis pub/sub so the API and worker
// processes share one bus. Delivery is at-most-once per subscriber; the
// outbox and consumer dedup cover redelivery.
type RedisBus struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisBus(client *redis.Client, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBus{client: client, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.EventID, err)
	}
	if err := b.client.Publish(ctx, redisChannelPrefix+topic, payload).Err(); err != nil {
		b.logger.Error("redis publish failed",
			"event", "redis_bus_publish_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (b *RedisBus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	sub := b.client.Subscribe(ctx, redisChannelPrefix+topic)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	go func() {
		defer sub.Close()
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event ports.EventEnvelope
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Warn("dropping undecodable event",
						"event", "redis_bus_decode_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"error", err.Error(),
					)
					continue
				}
				if err := handler(ctx, event); err != nil {
					logHandlerFailure(b.logger, topic, consumerGroup, event, err)
				}
			}
		}
	}()
	return nil
}

var (
	_ ports.EventPublisher  = (*RedisBus)(nil)
	_ ports.EventSubscriber = (*RedisBus)(nil)
)
