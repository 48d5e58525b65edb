package logger

import (
	"net/url"
	"strings"
)

// SanitizedEmail hides an address for logs, keeping its first letter and the
// top-level domain: "alice@example.com" becomes "a****@*******.com".
func SanitizedEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return "[invalid-email]"
	}

	masked := local[:1] + mask(local[1:])

	labels := strings.Split(domain, ".")
	for i := range labels[:len(labels)-1] {
		labels[i] = mask(labels[i])
	}

	return masked + "@" + strings.Join(labels, ".")
}

func mask(s string) string {
	return strings.Repeat("*", len(s))
}

// sensitiveKeys are substrings of query parameter names whose values never reach logs
var sensitiveKeys = []string{"password", "token", "secret", "email", "auth", "credential"}

// RedactQuery returns rawQuery with the values of sensitive parameters replaced.
// A query that does not parse is hidden entirely.
func RedactQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "[REDACTED]"
	}

	for key := range values {
		if isSensitiveKey(key) {
			values[key] = []string{"REDACTED"}
		}
	}
	return values.Encode()
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}
