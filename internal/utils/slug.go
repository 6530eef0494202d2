package utils

import (
	"strings"
	"unicode"
)

// Slugify lowercases s and reduces it to ascii letters, digits and single
// hyphens, mirroring how catalog slugs are generated elsewhere on the
// platform. Non-ascii runes are dropped.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case r == ' ', r == '-', r == '_', r == '.', r == '/':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
