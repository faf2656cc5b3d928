// Package outage приводит сырые графики провайдеров к упорядоченному набору
// интервалов в абсолютном времени и вычисляет по нему текущее состояние.
package outage

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"power-roulette/internal/domain"
)

var dateLayouts = []string{"02.01.2006", "2006-01-02"}

type clock struct {
	hour   int
	minute int
}

// Normalize переводит дни провайдера в интервалы в часовом поясе timezone.
// Неизвестный пояс заменяется на DefaultTimezone.
func Normalize(days []domain.RawDayRecord, timezone string) []domain.ResolvedInterval {
	loc, _ := LoadLocation(timezone)
	intervals, _ := NormalizeIn(days, loc)
	return intervals
}

// NormalizeIn делает то же, что Normalize, для уже разобранного пояса и
// дополнительно возвращает число отброшенных интервалов.
func NormalizeIn(days []domain.RawDayRecord, loc *time.Location) ([]domain.ResolvedInterval, int) {
	if loc == nil {
		loc = defaultLocation()
	}
	out := make([]domain.ResolvedInterval, 0)
	dropped := 0
	for _, day := range days {
		date, ok := parseDate(day.Date)
		if !ok {
			dropped += len(day.Intervals)
			continue
		}
		for _, raw := range day.Intervals {
			interval, ok := resolveInterval(date, raw, loc)
			if !ok {
				dropped++
				continue
			}
			out = append(out, interval)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, dropped
}

func resolveInterval(date time.Time, raw domain.RawInterval, loc *time.Location) (domain.ResolvedInterval, bool) {
	status := raw.Status
	if status == "" {
		status = domain.IntervalOff
	}
	if !status.IsOutage() {
		return domain.ResolvedInterval{}, false
	}
	from, ok := parseClock(raw.Start, false)
	if !ok {
		return domain.ResolvedInterval{}, false
	}
	to, ok := parseClock(raw.End, true)
	if !ok {
		return domain.ResolvedInterval{}, false
	}

	y, m, d := date.Date()
	start := WallClock(y, m, d, from.hour, from.minute, loc)
	end := WallClock(y, m, d, to.hour, to.minute, loc)
	if !end.After(start) {
		ny, nm, nd := date.AddDate(0, 0, 1).Date()
		end = WallClock(ny, nm, nd, to.hour, to.minute, loc)
	}
	return domain.ResolvedInterval{Start: start, End: end, Status: status}, true
}

func parseDate(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseClock разбирает "HH:MM" (и "H:MM"). "24:00" допустимо только как конец
// интервала: читается как 00:00, дальше его обрабатывает правило перехода
// через полночь.
func parseClock(raw string, end bool) (clock, bool) {
	value := strings.TrimSpace(raw)
	hh, mm, found := strings.Cut(value, ":")
	if !found || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return clock{}, false
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return clock{}, false
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return clock{}, false
	}
	switch {
	case end && hour == 24 && minute == 0:
		return clock{}, true
	case hour < 0 || hour > 23 || minute < 0 || minute > 59:
		return clock{}, false
	}
	return clock{hour: hour, minute: minute}, true
}
