// Package redact removes sensitive values from strings before they are
// logged or surfaced in error responses. Generation errors can carry the
// Gemini API key, database connection strings, or local file paths; none
// of those belong in logs.
package redact

import "regexp"

// Redaction placeholders
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
)

var (
	// Connection strings with embedded credentials
	connStringRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql|sqlite|db|database)://[^@\s]+@`)

	// API keys and tokens, including the AIza prefix Gemini keys use
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|key|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)
	geminiKeyRegex = regexp.MustCompile(`AIza[A-Za-z0-9_\-]{20,}`)

	// Local file paths
	unixPathRegex = regexp.MustCompile(`(/[\w.-]+){2,}`)

	patternPlaceholders = []struct {
		pattern     *regexp.Regexp
		placeholder string
	}{
		{connStringRegex, RedactedCredentialPlaceholder},
		{apiKeyRegex, RedactedKeyPlaceholder},
		{geminiKeyRegex, RedactedKeyPlaceholder},
		{unixPathRegex, RedactedPathPlaceholder},
	}
)

// String returns s with sensitive values replaced by placeholders.
func String(s string) string {
	for _, pp := range patternPlaceholders {
		s = pp.pattern.ReplaceAllString(s, pp.placeholder)
	}
	return s
}

// Error returns the redacted message of err, or "" for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
