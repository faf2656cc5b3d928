package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"power-roulette/internal/domain"
	"power-roulette/internal/infra/metrics"
)

// RedisEventQueue публикует события в Redis list.
type RedisEventQueue struct {
	client *redis.Client
	key    string
}

// NewRedisEventQueue создаёт публикатор по указанному ключу.
func NewRedisEventQueue(client *redis.Client, key string) *RedisEventQueue {
	return &RedisEventQueue{client: client, key: key}
}

// Publish кладёт событие в очередь.
func (q *RedisEventQueue) Publish(ctx context.Context, event domain.StatusEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	start := time.Now()
	err = q.client.LPush(ctx, q.key, payload).Err()
	metrics.ObserveNetworkRequest("redis", "lpush", q.key, start, err)
	if err != nil {
		return fmt.Errorf("push event: %w", err)
	}
	return nil
}
