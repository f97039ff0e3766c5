package fetch

import (
	"strings"

	"golang.org/x/net/html"
)

// CleanText decodes HTML character references (named, decimal and hex) and
// drops ASCII control characters other than tab, line feed and carriage return.
func CleanText(s string) string {
	s = strings.ToValidUTF8(s, "�")
	s = html.UnescapeString(s)
	return StripControl(s)
}

func StripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
