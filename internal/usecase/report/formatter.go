// Package report формирует тексты о состоянии электроснабжения для Telegram и API.
package report

import (
	"fmt"
	"html"
	"strings"
	"time"

	"power-roulette/internal/domain"
)

const timeLayout = "02.01 15:04"

// Countdown возвращает "In 4h 23m" до момента target или "Now", если момент прошёл.
// Пустая строка означает отсутствие момента.
func Countdown(target *time.Time, now time.Time) string {
	if target == nil {
		return ""
	}
	diff := target.Sub(now)
	if diff < 0 {
		return "Now"
	}
	hours := int(diff / time.Hour)
	minutes := int((diff % time.Hour) / time.Minute)
	return fmt.Sprintf("In %dh %dm", hours, minutes)
}

// FormatStatus формирует сообщение о текущем состоянии очереди.
func FormatStatus(snap domain.Snapshot, state domain.ResolvedState, now time.Time, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📍 <b>%s</b>, черга %s\n", escapeHTML(snap.City), escapeHTML(snap.Queue)))
	switch state.Status {
	case domain.PowerOff:
		b.WriteString("🔴 <b>Світла немає</b>")
	case domain.PowerOn:
		b.WriteString("🟢 <b>Світло є</b>")
	default:
		b.WriteString("⚪️ <b>Стан невідомий</b>")
	}
	if state.NextRestore != nil && state.Status == domain.PowerOff {
		b.WriteString(fmt.Sprintf("\nУвімкнення: %s (%s)", formatMoment(*state.NextRestore, loc), Countdown(state.NextRestore, now)))
	}
	if state.NextOutage != nil {
		b.WriteString(fmt.Sprintf("\nНаступне відключення: %s (%s)", formatMoment(*state.NextOutage, loc), Countdown(state.NextOutage, now)))
		if state.Status == domain.PowerOn && state.NextRestore != nil {
			b.WriteString(fmt.Sprintf("\nДо: %s", formatMoment(*state.NextRestore, loc)))
		}
	}
	if state.Status == domain.PowerOn && state.NextOutage == nil {
		b.WriteString("\nВідключень за графіком не заплановано")
	}
	if snap.Stale {
		b.WriteString("\n\n⚠️ Дані можуть бути застарілими")
		if !snap.RetrievedAt.IsZero() {
			b.WriteString(", оновлено " + formatMoment(snap.RetrievedAt, loc))
		}
	}
	return b.String()
}

// FormatSchedule перечисляет будущие и текущие интервалы, сгруппированные по дням.
func FormatSchedule(snap domain.Snapshot, now time.Time, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗓 <b>Графік відключень</b>, черга %s", escapeHTML(snap.Queue)))
	lastDay := ""
	shown := 0
	for _, interval := range snap.Intervals {
		if !interval.End.After(now) {
			continue
		}
		start, end := interval.Start.In(loc), interval.End.In(loc)
		if day := start.Format("02.01.2006"); day != lastDay {
			b.WriteString("\n\n<b>" + day + "</b>")
			lastDay = day
		}
		line := fmt.Sprintf("\n• %s–%s", start.Format("15:04"), end.Format("15:04"))
		if !sameDay(start, end) {
			line += " (" + end.Format("02.01") + ")"
		}
		if interval.Status == domain.IntervalProbablyOff {
			line += " <i>можливо</i>"
		}
		b.WriteString(line)
		shown++
	}
	if shown == 0 {
		b.WriteString("\n\nВідключень не заплановано")
	}
	return b.String()
}

// FormatEvent формирует уведомление об изменении состояния.
func FormatEvent(event domain.StatusEvent, snap domain.Snapshot, loc *time.Location) string {
	title := "🔔 <b>Графік змінився</b>"
	if event.Cause == domain.StatusCausePower {
		title = "⚡️ <b>Світло увімкнули</b>"
		if event.Current.Status == domain.PowerOff {
			title = "🔌 <b>Світло вимкнули</b>"
		}
	}
	return title + "\n\n" + FormatStatus(snap, event.Current, event.OccurredAt, loc)
}

func formatMoment(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(timeLayout)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func escapeHTML(s string) string {
	return html.EscapeString(s)
}
