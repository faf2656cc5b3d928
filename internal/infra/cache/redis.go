package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"power-roulette/internal/domain"
	"power-roulette/internal/infra/metrics"
)

// RedisCache реализует domain.Cache и domain.SnapshotCache через Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedis создаёт кэш.
func NewRedis(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Once выполняет функцию, если ключ ещё не задан.
func (c *RedisCache) Once(key string, ttl time.Duration, fn func() error) error {
	ctx := context.Background()
	ok, err := c.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := fn(); err != nil {
		_ = c.client.Del(ctx, key).Err()
		return err
	}
	return nil
}

// PutSnapshot сохраняет снимок очереди в JSON без срока жизни: при долгой
// недоступности провайдера читатели получают последний снимок с пометкой stale.
func (c *RedisCache) PutSnapshot(ctx context.Context, snap domain.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	start := time.Now()
	err = c.client.Set(ctx, SnapshotKey(snap.City, snap.Queue), payload, 0).Err()
	metrics.ObserveNetworkRequest("redis", "set", "snapshot", start, err)
	return err
}

// GetSnapshot читает снимок; отсутствие ключа не ошибка.
func (c *RedisCache) GetSnapshot(ctx context.Context, city, queue string) (domain.Snapshot, bool, error) {
	start := time.Now()
	payload, err := c.client.Get(ctx, SnapshotKey(city, queue)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveNetworkRequest("redis", "get", "snapshot", start, nil)
		return domain.Snapshot{}, false, nil
	}
	metrics.ObserveNetworkRequest("redis", "get", "snapshot", start, err)
	if err != nil {
		return domain.Snapshot{}, false, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

// SnapshotKey возвращает ключ зеркала снимка.
func SnapshotKey(city, queue string) string {
	return fmt.Sprintf("snapshot:%s:%s", city, queue)
}
