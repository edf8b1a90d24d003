// Package redact removes PII from free text before it is persisted or
// posted back to the chat surface.
package redact

import "regexp"

// Redaction tokens substituted for detected spans.
const (
	TokenSSN   = "[REDACTED SSN]"
	TokenEmail = "[REDACTED EMAIL]"
	TokenCard  = "[REDACTED CARD]"
)

var (
	ssnPattern   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	cardPattern  = regexp.MustCompile(`\b\d{16}\b`)
)

// Redact replaces SSN-shaped numbers, email addresses and 16-digit card
// numbers with fixed tokens. Idempotent: the tokens contain nothing the
// patterns match. Malformed-but-sensitive data may pass through; that is a
// documented limitation.
func Redact(text string) string {
	text = ssnPattern.ReplaceAllString(text, TokenSSN)
	text = emailPattern.ReplaceAllString(text, TokenEmail)
	text = cardPattern.ReplaceAllString(text, TokenCard)
	return text
}
