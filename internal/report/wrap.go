package report

import "strings"

// Placeholder stands in for empty optional text.
const Placeholder = "-"

// Wrap splits text into lines no wider than maxWidth. Words are packed
// greedily on whitespace runs; a word that alone exceeds maxWidth is broken
// rune by rune. Blank input yields a single Placeholder line.
func Wrap(m Measurer, text string, font Font, size, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{Placeholder}
	}

	var (
		lines   []string
		current string
	)
	for _, w := range words {
		candidate := w
		if current != "" {
			candidate = current + " " + w
		}
		if m.Width(candidate, font, size) <= maxWidth {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
		if m.Width(w, font, size) <= maxWidth {
			current = w
			continue
		}

		var chunk string
		for _, r := range w {
			next := chunk + string(r)
			// a single rune wider than the line still gets a line of its own
			if chunk == "" || m.Width(next, font, size) <= maxWidth {
				chunk = next
				continue
			}
			lines = append(lines, chunk)
			chunk = string(r)
		}
		current = chunk
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// Clip shortens text with a trailing ellipsis so it fits maxWidth on one
// line. Blank text becomes Placeholder.
func Clip(m Measurer, text string, font Font, size, maxWidth float64) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return Placeholder
	}
	if m.Width(text, font, size) <= maxWidth {
		return text
	}
	runes := []rune(text)
	for n := len(runes) - 1; n > 0; n-- {
		s := string(runes[:n]) + "..."
		if m.Width(s, font, size) <= maxWidth {
			return s
		}
	}
	return "..."
}
