package domain

import "time"

// Snapshot хранит неизменяемый результат последнего цикла опроса.
// Публикуется целиком, на месте не меняется.
type Snapshot struct {
	City          string             `json:"city"`
	Queue         string             `json:"queue"`
	Provider      string             `json:"provider"`
	Timezone      string             `json:"timezone"`
	Days          []RawDayRecord     `json:"days"`
	Intervals     []ResolvedInterval `json:"intervals"`
	State         ResolvedState      `json:"state"`
	RetrievedAt   time.Time          `json:"retrieved_at"`
	ResolvedAt    time.Time          `json:"resolved_at"`
	Stale         bool               `json:"stale"`
	LastError     string             `json:"last_error,omitempty"`
	LastErrorKind ErrorKind          `json:"last_error_kind,omitempty"`
	FailedAt      *time.Time         `json:"failed_at,omitempty"`
}

// Failed возвращает копию снимка, помеченную как устаревшая после сбоя.
// Состояние и интервалы сохраняются.
func (s Snapshot) Failed(err error, at time.Time) Snapshot {
	out := s
	out.Stale = true
	out.LastErrorKind = KindOf(err)
	out.LastError = err.Error()
	failedAt := at
	out.FailedAt = &failedAt
	return out
}
