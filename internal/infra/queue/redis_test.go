package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"power-roulette/internal/domain"
)

func TestRedisEventQueuePublish(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	q := NewRedisEventQueue(client, "outage_events")

	first := domain.StatusEvent{ID: "e1", City: "Калуш", Queue: "1.1", Cause: domain.StatusCausePower}
	second := domain.StatusEvent{ID: "e2", City: "Калуш", Queue: "1.1", Cause: domain.StatusCauseSchedule}
	require.NoError(t, q.Publish(context.Background(), first))
	require.NoError(t, q.Publish(context.Background(), second))

	items, err := srv.List("outage_events")
	require.NoError(t, err)
	require.Len(t, items, 2)

	var got domain.StatusEvent
	require.NoError(t, json.Unmarshal([]byte(items[0]), &got))
	require.Equal(t, "e2", got.ID)
	require.NoError(t, json.Unmarshal([]byte(items[1]), &got))
	require.Equal(t, "e1", got.ID)
	require.Equal(t, domain.StatusCausePower, got.Cause)
}

func TestRedisEventQueuePublishUnavailable(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	srv.Close()

	err := NewRedisEventQueue(client, "outage_events").Publish(context.Background(), domain.StatusEvent{ID: "e1"})
	require.Error(t, err)
}
