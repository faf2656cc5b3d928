package telegram

import "strings"

const messageLimit = 4096

// SplitMessage режет текст на части в пределах лимита Telegram.
func SplitMessage(text string) []string {
	return splitMessage(text, messageLimit)
}

// splitMessage режет сначала по пустым строкам (границы дней графика),
// затем по переводам строк и только потом по лимиту.
func splitMessage(text string, limit int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	runes := []rune(trimmed)
	if len(runes) <= limit {
		return []string{trimmed}
	}

	var parts []string
	for start := 0; start < len(runes); {
		end := start + limit
		if end >= len(runes) {
			parts = appendChunk(parts, runes[start:])
			break
		}
		split := lastBreak(runes, start, end, true)
		if split == -1 {
			split = lastBreak(runes, start, end, false)
		}
		if split == -1 {
			split = end
		}
		parts = appendChunk(parts, runes[start:split])
		start = split
		for start < len(runes) && runes[start] == '\n' {
			start++
		}
	}
	return parts
}

func lastBreak(runes []rune, start, end int, paragraph bool) int {
	for i := end; i > start+1; i-- {
		if runes[i-1] != '\n' {
			continue
		}
		if !paragraph || runes[i-2] == '\n' {
			return i
		}
	}
	return -1
}

func appendChunk(parts []string, chunk []rune) []string {
	if s := strings.Trim(string(chunk), "\n"); s != "" {
		return append(parts, s)
	}
	return parts
}
