package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"power-roulette/internal/domain"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, NewRedis(client)
}

func TestOnceRunsOnlyFirstTime(t *testing.T) {
	srv, c := newTestCache(t)
	calls := 0
	fn := func() error {
		calls++
		return nil
	}

	require.NoError(t, c.Once("notify:a", time.Hour, fn))
	require.NoError(t, c.Once("notify:a", time.Hour, fn))
	require.Equal(t, 1, calls)
	require.True(t, srv.Exists("notify:a"))
	require.Equal(t, time.Hour, srv.TTL("notify:a"))
}

func TestOnceReleasesKeyOnError(t *testing.T) {
	srv, c := newTestCache(t)
	sendErr := errors.New("telegram down")

	err := c.Once("notify:b", time.Hour, func() error { return sendErr })
	require.ErrorIs(t, err, sendErr)
	require.False(t, srv.Exists("notify:b"))

	calls := 0
	require.NoError(t, c.Once("notify:b", time.Hour, func() error {
		calls++
		return nil
	}))
	require.Equal(t, 1, calls)
}

func TestGetSnapshotMissing(t *testing.T) {
	_, c := newTestCache(t)
	_, ok, err := c.GetSnapshot(context.Background(), "Калуш", "1.1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSnapshotRoundTripWithoutExpiry(t *testing.T) {
	srv, c := newTestCache(t)
	ctx := context.Background()
	snap := domain.Snapshot{
		City:          "Калуш",
		Queue:         "1.1",
		State:         domain.ResolvedState{Status: domain.PowerOn},
		Stale:         true,
		LastErrorKind: domain.ErrorKindFormat,
	}

	require.NoError(t, c.PutSnapshot(ctx, snap))
	require.Zero(t, srv.TTL(SnapshotKey("Калуш", "1.1")))

	srv.FastForward(30 * 24 * time.Hour)
	got, ok, err := c.GetSnapshot(ctx, "Калуш", "1.1")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Stale)
	require.Equal(t, domain.ErrorKindFormat, got.LastErrorKind)
	require.Equal(t, domain.PowerOn, got.State.Status)
}

func TestGetSnapshotBrokenPayload(t *testing.T) {
	srv, c := newTestCache(t)
	require.NoError(t, srv.Set(SnapshotKey("Калуш", "1.1"), "{"))

	_, ok, err := c.GetSnapshot(context.Background(), "Калуш", "1.1")
	require.Error(t, err)
	require.False(t, ok)
}
