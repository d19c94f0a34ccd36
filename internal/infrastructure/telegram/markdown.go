package telegram

import (
	"strings"
	"unicode/utf8"
)

// markdownV2Escaper prefixes every character MarkdownV2 treats as markup with
// a backslash. Replacer output is never rescanned.
var markdownV2Escaper = strings.NewReplacer(
	`\`, `\\`,
	"_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "<", `\<`, "#", `\#`, "+", `\+`,
	"-", `\-`, "=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`,
	"!", `\!`,
)

// EscapeMarkdownV2 makes text safe to send with parse_mode MarkdownV2.
func EscapeMarkdownV2(text string) string {
	return markdownV2Escaper.Replace(text)
}

// truncateRunes shortens s to at most max runes.
func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
