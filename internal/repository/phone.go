package repository

import (
	"strings"
	"unicode"
)

// NormalizePhoneNumber canonicalizes a caller-supplied number to E.164 form
// for US numbers. All non-digit characters are stripped, a bare 10-digit
// number gets the +1 country prefix, an 11-digit number starting with 1 keeps
// its prefix, and anything else degrades to prefixing a plus sign. The
// function is idempotent: normalizing an already-normalized number returns it
// unchanged.
func NormalizePhoneNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits
	case len(digits) == 10:
		return "+1" + digits
	default:
		return "+" + digits
	}
}
