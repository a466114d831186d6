package payment

import (
	"strings"
	"unicode/utf8"
)

// markdownSpecial lists the characters Telegram MarkdownV2 requires escaped.
const markdownSpecial = "_*[]()~`>#+-=|{}.!"

// Escape prefixes every MarkdownV2 special character with a backslash.
func Escape(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Truncate cuts s to at most limit runes. A trailing escape backslash left
// without its character is dropped. limit <= 0 disables truncation.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)[:limit]
	trailing := 0
	for i := len(runes) - 1; i >= 0 && runes[i] == '\\'; i-- {
		trailing++
	}
	if trailing%2 == 1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}
