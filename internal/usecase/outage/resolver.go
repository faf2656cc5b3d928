package outage

import (
	"time"

	"power-roulette/internal/domain"
)

// Resolve вычисляет состояние относительно момента ref.
// intervals должны быть отсортированы по Start, как их возвращает Normalize.
func Resolve(intervals []domain.ResolvedInterval, ref time.Time) domain.ResolvedState {
	for i, interval := range intervals {
		if !ref.Before(interval.End) {
			continue
		}
		if interval.Contains(ref) {
			restore := interval.End
			return domain.ResolvedState{
				Status:      domain.PowerOff,
				NextRestore: &restore,
				NextOutage:  nextStartAfter(intervals[i+1:], ref),
			}
		}
		start, end := interval.Start, interval.End
		return domain.ResolvedState{
			Status:      domain.PowerOn,
			NextOutage:  &start,
			NextRestore: &end,
		}
	}
	return domain.ResolvedState{Status: domain.PowerOn}
}

// nextStartAfter ищет первый последующий интервал, который ещё не начался.
// Буквальное правило "начало следующего интервала" оставило бы next_outage
// пустым, если следующий интервал перекрывает текущий и уже начался. Такие
// интервалы пропускаются, и берётся первое начало позже ref.
func nextStartAfter(rest []domain.ResolvedInterval, ref time.Time) *time.Time {
	for _, interval := range rest {
		if interval.Start.After(ref) {
			start := interval.Start
			return &start
		}
	}
	return nil
}
