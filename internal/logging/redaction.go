package logging

import "regexp"

// Redaction patterns for credentials that services echo back in error bodies.
var (
	// BearerPattern matches bearer tokens.
	BearerPattern = regexp.MustCompile(`(?i)(Bearer\s+)([A-Za-z0-9\-_.]{20,})`)

	// SecretPattern matches client secrets in form or JSON bodies.
	SecretPattern = regexp.MustCompile(`(?i)("?client_secret"?\s*[=:]\s*"?)([^\s"&,}]+)`)

	// TokenFieldPattern matches OAuth token fields in form or JSON bodies.
	TokenFieldPattern = regexp.MustCompile(`(?i)("?(?:access|refresh|id)_token"?\s*[=:]\s*"?)([^\s"&,}]+)`)
)

// RedactString masks bearer tokens, client secrets and OAuth token fields in s.
func RedactString(s string) string {
	if s == "" {
		return s
	}
	s = BearerPattern.ReplaceAllString(s, `${1}***REDACTED***`)
	s = SecretPattern.ReplaceAllString(s, `${1}***REDACTED***`)
	return TokenFieldPattern.ReplaceAllString(s, `${1}***REDACTED***`)
}
