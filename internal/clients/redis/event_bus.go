package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/FrejusAdedemi/wim-plateform/internal/events"
	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
	"github.com/FrejusAdedemi/wim-plateform/internal/utils"
)

// EventBus publishes domain events to a single redis pub/sub channel. The SSE
// gateway fans them out to connected clients; nothing in this process
// subscribes.
type EventBus struct {
	client  *redis.Client
	channel string
	log     *logger.Logger
}

func NewEventBus(baseLog *logger.Logger) (*EventBus, error) {
	busLog := baseLog.With("client", "RedisEventBus")
	addr := utils.GetEnv("REDIS_ADDR", "localhost:6379", busLog)
	password := utils.GetEnv("REDIS_PASSWORD", "", busLog)
	channel := utils.GetEnv("REDIS_CHANNEL", "wim.events", busLog)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	busLog.Info("Connected to redis", "addr", addr, "channel", channel)
	return &EventBus{client: client, channel: channel, log: busLog}, nil
}

func (b *EventBus) Publish(ctx context.Context, e events.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

func (b *EventBus) Close() error {
	return b.client.Close()
}
