package rendering

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	boldPattern   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern = regexp.MustCompile(`\*(.*?)\*`)
	codePattern   = regexp.MustCompile("`(.*?)`")
	headerPattern = regexp.MustCompile(`#{1,6}\s+`)
)

// Snippet flattens message text to a single cleaned line for list rows.
// Markdown syntax is stripped rather than rendered; styling a one-line
// excerpt just adds noise.
func Snippet(text string, limit int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.TrimSpace(text)

	text = boldPattern.ReplaceAllString(text, "$1")
	text = italicPattern.ReplaceAllString(text, "$1")
	text = codePattern.ReplaceAllString(text, "$1")
	text = headerPattern.ReplaceAllString(text, "")

	// Truncate on rune boundaries; a byte slice could split a multi-byte
	// character and emit an invalid sequence.
	if limit > 3 && utf8.RuneCountInString(text) > limit {
		runes := []rune(text)
		text = strings.TrimSpace(string(runes[:limit-3])) + "..."
	}
	return text
}
