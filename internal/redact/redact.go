// Package redact strips credentials, SQL, file paths and email addresses from
// strings before they are logged or returned in error responses.
package redact

import (
	"log/slog"
	"regexp"
)

// Placeholders substituted for redacted fragments.
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedSQLPlaceholder        = "[REDACTED_SQL]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Rules run in order: connection strings go before paths so a DSN's userinfo
// is never half-matched as a path.
var rules = []rule{
	{
		// postgres://user:pass@ and friends
		pattern:     regexp.MustCompile(`(?i)\b(?:postgres(?:ql)?|mysql)://[^\s@]+@`),
		placeholder: RedactedCredentialPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(?:password|passwd|pwd)\s*[=:]\s*[^\s&]+`),
		placeholder: RedactedCredentialPlaceholder,
	},
	{
		// Uppercase only, so prose such as "failed to update memo" survives.
		pattern:     regexp.MustCompile(`\b(?:SELECT|INSERT INTO|UPDATE|DELETE FROM)\s[^;\n]*`),
		placeholder: RedactedSQLPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`(?:/[\w.-]+){2,}`),
		placeholder: RedactedPathPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		placeholder: RedactedEmailPlaceholder,
	},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}
	for _, r := range rules {
		input = r.pattern.ReplaceAllString(input, r.placeholder)
	}
	return input
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// Attr returns an "error" log attribute holding the redacted error text.
func Attr(err error) slog.Attr {
	return slog.String("error", Error(err))
}
