package utils

import (
	// Go Internal Packages
	"strconv"
	"strings"
)

// markdownV2Reserved is the full reserved set of the Telegram
// MarkdownV2 dialect. Every one of these must be backslash-escaped in
// user-supplied substrings before embedding.
const markdownV2Reserved = "_*[]()~`>#+-=|{}.!"

// EscapeMarkdownV2 escapes reserved MarkdownV2 characters in s.
func EscapeMarkdownV2(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownV2Reserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EscapeMarkdownV2Code escapes s for embedding inside a MarkdownV2
// code span, where only backslash and backtick are reserved.
func EscapeMarkdownV2Code(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\\' || r == '`' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatRupiah renders an integer rupiah amount with dot thousand
// separators, e.g. 1500000 -> "Rp 1.500.000".
func FormatRupiah(amount int) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := strconv.Itoa(amount)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := "Rp " + strings.Join(parts, ".")
	if neg {
		out = "-" + out
	}
	return out
}
