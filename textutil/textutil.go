// Package textutil provides the small text helpers shared by extraction and
// rendering: rune-aware truncation, whitespace collapsing, escaping and
// positional id synthesis.
package textutil

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Ellipsis is appended to text cut by Truncate.
const Ellipsis = "..."

// Truncate keeps at most max runes of s. When s is longer, the kept prefix is
// followed by Ellipsis. Counting is by rune so multi-byte text is never split.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + Ellipsis
}

// Collapse trims s and folds every run of whitespace into a single space.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return len([]rune(s))
}

// Escape returns s with markup-significant characters replaced by entities.
func Escape(s string) string {
	return html.EscapeString(s)
}

// PositionalID builds "{platform}-{kind}-{index}".
func PositionalID(platform, kind string, index int) string {
	return platform + "-" + kind + "-" + strconv.Itoa(index)
}

// SlugID builds "{platform}-{kind}-{fragment}" with the fragment reduced to
// characters that are safe inside an id attribute and a CSS attribute selector.
func SlugID(platform, kind, fragment string) string {
	var sb strings.Builder
	for _, r := range fragment {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return platform + "-" + kind + "-" + sb.String()
}
