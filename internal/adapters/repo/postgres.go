package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"power-roulette/internal/domain"
	"power-roulette/internal/infra/metrics"
)

// DB покрывает нужную часть *pgxpool.Pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres хранит последний снимок каждой очереди.
type Postgres struct {
	pool DB
}

var _ domain.SnapshotStore = (*Postgres)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS outage_snapshots (
	city          TEXT        NOT NULL,
	queue         TEXT        NOT NULL,
	provider      TEXT        NOT NULL,
	status        TEXT        NOT NULL DEFAULT '',
	stale         BOOLEAN     NOT NULL DEFAULT FALSE,
	last_error    TEXT        NOT NULL DEFAULT '',
	payload       JSONB       NOT NULL,
	retrieved_at  TIMESTAMPTZ,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (city, queue)
)`

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool DB) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// EnsureSchema создаёт таблицу снимков, если её нет.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, schema)
	metrics.ObserveNetworkRequest("postgres", "ensure_schema", "outage_snapshots", start, err)
	if err != nil {
		return fmt.Errorf("create outage_snapshots: %w", err)
	}
	return nil
}

// SaveLatest перезаписывает снимок очереди.
func (p *Postgres) SaveLatest(ctx context.Context, snap domain.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	var retrievedAt *time.Time
	if !snap.RetrievedAt.IsZero() {
		retrievedAt = &snap.RetrievedAt
	}

	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err = p.pool.Exec(ctx, `
INSERT INTO outage_snapshots (city, queue, provider, status, stale, last_error, payload, retrieved_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
ON CONFLICT (city, queue) DO UPDATE SET
	provider = EXCLUDED.provider,
	status = EXCLUDED.status,
	stale = EXCLUDED.stale,
	last_error = EXCLUDED.last_error,
	payload = EXCLUDED.payload,
	retrieved_at = EXCLUDED.retrieved_at,
	updated_at = now()
`, snap.City, snap.Queue, snap.Provider, string(snap.State.Status), snap.Stale, snap.LastError, payload, retrievedAt)
	metrics.ObserveNetworkRequest("postgres", "snapshot_upsert", "outage_snapshots", start, err)
	return err
}

// LoadLatest возвращает сохранённый снимок; false, если его нет.
func (p *Postgres) LoadLatest(ctx context.Context, city, queue string) (domain.Snapshot, bool, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var payload []byte
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT payload FROM outage_snapshots WHERE city = $1 AND queue = $2`, city, queue).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "snapshot_select", "outage_snapshots", start, nil)
		return domain.Snapshot{}, false, nil
	}
	metrics.ObserveNetworkRequest("postgres", "snapshot_select", "outage_snapshots", start, err)
	if err != nil {
		return domain.Snapshot{}, false, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}
