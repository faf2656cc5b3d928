package outage

import (
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultTimezone используется, если настроенный пояс пуст или неизвестен.
const DefaultTimezone = "Europe/Kyiv"

// LoadLocation разбирает имя часового пояса. Второе значение false означает,
// что имя не распознано и взят DefaultTimezone.
func LoadLocation(name string) (*time.Location, bool) {
	if normalized, ok := normalizeTimezone(name); ok {
		if loc, err := time.LoadLocation(normalized); err == nil {
			return loc, true
		}
	}
	return defaultLocation(), false
}

func defaultLocation() *time.Location {
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	// Без tzdata: зимнее смещение Киева.
	return time.FixedZone("EET", 2*60*60)
}

func normalizeTimezone(raw string) (string, bool) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", false
	}
	candidate = strings.ReplaceAll(candidate, " ", "_")
	if _, err := time.LoadLocation(candidate); err == nil {
		return candidate, true
	}

	lower := strings.ToLower(candidate)
	parts := strings.Split(lower, "/")
	for i, part := range parts {
		segments := strings.Split(part, "_")
		for j, segment := range segments {
			pieces := strings.Split(segment, "-")
			for k, piece := range pieces {
				if piece == "" {
					continue
				}
				pieces[k] = strings.ToUpper(piece[:1]) + piece[1:]
			}
			segments[j] = strings.Join(pieces, "-")
		}
		parts[i] = strings.Join(segments, "_")
	}
	normalized := strings.Join(parts, "/")
	if _, err := time.LoadLocation(normalized); err == nil {
		return normalized, true
	}
	return "", false
}

// WallClock переводит локальные дату и время суток в абсолютный момент.
// При переводе часов назад берётся первое вхождение, в пропущенный час
// время сдвигается вперёд на величину перехода.
func WallClock(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	naive := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	_, before := naive.Add(-12 * time.Hour).In(loc).Zone()
	_, after := naive.Add(12 * time.Hour).In(loc).Zone()

	var found []time.Time
	for _, offset := range []int{before, after} {
		candidate := naive.Add(-time.Duration(offset) * time.Second).In(loc)
		if sameWallClock(candidate, year, month, day, hour, minute) {
			found = append(found, candidate)
		}
	}
	switch len(found) {
	case 0:
		return naive.Add(-time.Duration(before) * time.Second).In(loc)
	case 1:
		return found[0]
	default:
		if found[1].Before(found[0]) {
			return found[1]
		}
		return found[0]
	}
}

func sameWallClock(t time.Time, year int, month time.Month, day, hour, minute int) bool {
	y, m, d := t.Date()
	return y == year && m == month && d == day && t.Hour() == hour && t.Minute() == minute
}
