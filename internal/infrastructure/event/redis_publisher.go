package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
)

const defaultChannelPrefix = "storefront:events:"

// eventEnvelope is the wire format published to Redis channels. Downstream
// consumers (order fulfilment, analytics) subscribe by event type.
type eventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	TenantID      string          `json:"tenant_id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// RedisEventPublisher delivers outbox entries over Redis pub/sub
type RedisEventPublisher struct {
	client *redis.Client
	prefix string
}

// NewRedisEventPublisher creates a publisher connected to the configured Redis
func NewRedisEventPublisher(cfg config.RedisConfig) (*RedisEventPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisEventPublisher{client: client, prefix: defaultChannelPrefix}, nil
}

// NewRedisEventPublisherWithClient wraps an existing client, mainly for tests
func NewRedisEventPublisherWithClient(client *redis.Client, prefix string) *RedisEventPublisher {
	if prefix == "" {
		prefix = defaultChannelPrefix
	}
	return &RedisEventPublisher{client: client, prefix: prefix}
}

// Publish sends the entry to the channel named after its event type
func (p *RedisEventPublisher) Publish(ctx context.Context, entry *shared.OutboxEntry) error {
	envelope := eventEnvelope{
		EventID:       entry.EventID.String(),
		EventType:     entry.EventType,
		TenantID:      entry.TenantID.String(),
		AggregateID:   entry.AggregateID.String(),
		AggregateType: entry.AggregateType,
		OccurredAt:    entry.CreatedAt,
		Payload:       entry.Payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to serialize event envelope: %w", err)
	}
	return p.client.Publish(ctx, p.prefix+entry.EventType, data).Err()
}

// Close releases the Redis connection
func (p *RedisEventPublisher) Close() error {
	return p.client.Close()
}
