package domain

import (
	"context"
	"time"
)

// StatusEventCause описывает, что именно изменилось между опросами.
type StatusEventCause string

const (
	// свет выключили или включили
	StatusCausePower StatusEventCause = "power"
	// сдвинулись границы ближайшего отключения
	StatusCauseSchedule StatusEventCause = "schedule"
)

// StatusEvent сообщает об изменении состояния очереди.
type StatusEvent struct {
	ID         string           `json:"event_id"`
	City       string           `json:"city"`
	Queue      string           `json:"queue"`
	Cause      StatusEventCause `json:"cause"`
	Previous   ResolvedState    `json:"previous"`
	Current    ResolvedState    `json:"current"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// EventPublisher публикует события об изменениях для внешних подписчиков.
type EventPublisher interface {
	Publish(ctx context.Context, event StatusEvent) error
}
