// Package phone normalizes phone numbers into the digits-only form used as mapping keys.
package phone

import (
	"strings"
)

// Normalize strips an optional "<channel>:" prefix and keeps only ASCII digits.
// The result is empty when no digits remain.
func Normalize(raw string) string {
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		raw = raw[i+1:]
	}
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Address formats a normalized number for the WhatsApp channel of the gateway.
func Address(digits string) string {
	return "whatsapp:+" + digits
}
