package domain

import "time"

// IntervalStatus хранит интерпретированный статус интервала от провайдера.
type IntervalStatus string

const (
	// плановое отключение
	IntervalOff IntervalStatus = "off"
	// возможное отключение
	IntervalProbablyOff IntervalStatus = "probably_off"
	// провайдер явно сообщает, что свет есть
	IntervalOn IntervalStatus = "on"
)

// IsOutage сообщает, означает ли статус отключение.
func (s IntervalStatus) IsOutage() bool {
	return s != IntervalOn
}

// PowerStatus описывает текущее состояние электроснабжения.
type PowerStatus string

const (
	PowerOn  PowerStatus = "on"
	PowerOff PowerStatus = "off"
)

// RawInterval описывает окно отключения внутри дня в локальном времени источника.
// Start и End могут быть пустыми или битыми.
type RawInterval struct {
	Start  string         `json:"start"`
	End    string         `json:"end"`
	Status IntervalStatus `json:"status"`
	Code   string         `json:"code,omitempty"`
}

// RawDayRecord содержит интервалы одного календарного дня, как их отдал провайдер.
type RawDayRecord struct {
	Date      string        `json:"date"`
	Intervals []RawInterval `json:"intervals"`
}

// ResolvedInterval задаёт отключение в абсолютном времени. End строго больше Start.
type ResolvedInterval struct {
	Start  time.Time      `json:"start"`
	End    time.Time      `json:"end"`
	Status IntervalStatus `json:"status"`
}

// Contains сообщает, попадает ли момент в интервал (границы включительно).
func (i ResolvedInterval) Contains(ref time.Time) bool {
	return !ref.Before(i.Start) && !ref.After(i.End)
}

// ResolvedState отдаётся потребителям.
type ResolvedState struct {
	Status      PowerStatus `json:"current_status"`
	NextOutage  *time.Time  `json:"next_outage,omitempty"`
	NextRestore *time.Time  `json:"next_restore,omitempty"`
}

// Equal сравнивает состояния по значению.
func (s ResolvedState) Equal(other ResolvedState) bool {
	return s.Status == other.Status &&
		equalInstant(s.NextOutage, other.NextOutage) &&
		equalInstant(s.NextRestore, other.NextRestore)
}

func equalInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
