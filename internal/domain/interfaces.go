package domain

import (
	"context"
	"time"
)

// ScheduleProvider адаптирует один источник графиков.
// Весь разбор формата источника остаётся внутри реализации.
type ScheduleProvider interface {
	Name() string
	// ListQueues возвращает идентификаторы очередей.
	ListQueues(ctx context.Context) ([]string, error)
	// FetchSchedule возвращает дни с интервалами для очереди.
	// Битые отдельные интервалы не являются ошибкой.
	FetchSchedule(ctx context.Context, queue string) ([]RawDayRecord, error)
}

// SnapshotStore хранит последний снимок очереди.
type SnapshotStore interface {
	SaveLatest(ctx context.Context, snapshot Snapshot) error
	LoadLatest(ctx context.Context, city, queue string) (Snapshot, bool, error)
}

// SnapshotCache раздаёт последний снимок другим процессам.
type SnapshotCache interface {
	PutSnapshot(ctx context.Context, snapshot Snapshot) error
	GetSnapshot(ctx context.Context, city, queue string) (Snapshot, bool, error)
}

// Cache выполняет действие не больше одного раза за ttl.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
}

// Notifier доставляет уведомления об изменениях людям.
type Notifier interface {
	NotifyStatus(ctx context.Context, event StatusEvent, snapshot Snapshot) error
}
