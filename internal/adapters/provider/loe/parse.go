package loe

import (
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"power-roulette/internal/domain"
)

var (
	errNoSchedule = errors.New("schedule header not found")

	dayHeaderRe = regexp.MustCompile(`(?i)графік\s+погодинних\s+відключень\s+на\s+(\d{2}\.\d{2}\.\d{4})`)
	groupRe     = regexp.MustCompile(`(?i)^груп[аи]\s+(\d+\.\d+)\.?\s*(.*)$`)
	windowRe    = regexp.MustCompile(`з\s+(\d{1,2}:\d{2})\s+до\s+(\d{1,2}:\d{2})`)
	probableRe  = regexp.MustCompile(`(?i)можлив`)
	powerOnRe   = regexp.MustCompile(`(?i)електроенергія\s+є`)
)

// daySchedule хранит один день графика со всеми группами.
type daySchedule struct {
	Date   string
	Groups map[string][]domain.RawInterval
	order  []string
}

// parseDocument разбирает страницу или JSON-обёртку с HTML-фрагментами.
func parseDocument(body []byte) ([]daySchedule, error) {
	fragments, err := htmlFragments(body)
	if err != nil {
		return nil, err
	}
	var days []daySchedule
	for _, fragment := range fragments {
		lines, err := textLines(fragment)
		if err != nil {
			return nil, err
		}
		days = append(days, parseLines(lines)...)
	}
	if len(days) == 0 {
		return nil, errNoSchedule
	}
	return days, nil
}

// htmlFragments возвращает HTML как есть или вытаскивает поля rawHtml из JSON.
func htmlFragments(body []byte) ([]string, error) {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return []string{trimmed}, nil
	}
	var payload any
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return nil, err
	}
	var out []string
	collectRawHTML(payload, &out)
	return out, nil
}

func collectRawHTML(node any, out *[]string) {
	switch v := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if key == "rawHtml" {
				if s, ok := v[key].(string); ok && strings.TrimSpace(s) != "" {
					*out = append(*out, s)
				}
				continue
			}
			collectRawHTML(v[key], out)
		}
	case []any:
		for _, item := range v {
			collectRawHTML(item, out)
		}
	}
}

// textLines превращает разметку в строки текста: блочные элементы и <br>
// начинают новую строку.
func textLines(fragment string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
			if isBreak(n.DataAtom) {
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBreak(n.DataAtom) {
			b.WriteByte('\n')
		}
	}
	walk(doc)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		line = strings.Join(strings.Fields(strings.ReplaceAll(line, "\u00a0", " ")), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func isBreak(a atom.Atom) bool {
	switch a {
	case atom.Br, atom.P, atom.Div, atom.Li, atom.Tr, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

func parseLines(lines []string) []daySchedule {
	var days []daySchedule
	for _, line := range lines {
		if m := dayHeaderRe.FindStringSubmatch(line); m != nil {
			days = append(days, daySchedule{Date: m[1], Groups: map[string][]domain.RawInterval{}})
			continue
		}
		if len(days) == 0 {
			continue
		}
		current := &days[len(days)-1]
		m := groupRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		group, text := m[1], m[2]
		if _, seen := current.Groups[group]; !seen {
			current.order = append(current.order, group)
			current.Groups[group] = []domain.RawInterval{}
		}
		current.Groups[group] = append(current.Groups[group], parseGroupText(text)...)
	}
	return days
}

func parseGroupText(text string) []domain.RawInterval {
	if powerOnRe.MatchString(text) && !windowRe.MatchString(text) {
		return nil
	}
	status, code := domain.IntervalOff, "немає"
	if probableRe.MatchString(text) {
		status, code = domain.IntervalProbablyOff, "можливо"
	}
	var out []domain.RawInterval
	for _, m := range windowRe.FindAllStringSubmatch(text, -1) {
		out = append(out, domain.RawInterval{Start: m[1], End: m[2], Status: status, Code: code})
	}
	return out
}

// queuesOf возвращает группы в порядке появления.
func queuesOf(days []daySchedule) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range days {
		for _, group := range d.order {
			if _, ok := seen[group]; ok {
				continue
			}
			seen[group] = struct{}{}
			out = append(out, group)
		}
	}
	return out
}
