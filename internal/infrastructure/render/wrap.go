package render

import (
	"strings"
	"unicode/utf8"
)

// Wrap splits every line of text longer than width runes into width-sized
// chunks. Words are not kept together.
func Wrap(text string, width int) []string {
	if width <= 0 {
		return strings.Split(text, "\n")
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if utf8.RuneCountInString(line) <= width {
			out = append(out, line)
			continue
		}
		runes := []rune(line)
		for start := 0; start < len(runes); start += width {
			end := start + width
			if end > len(runes) {
				end = len(runes)
			}
			out = append(out, string(runes[start:end]))
		}
	}
	return out
}
