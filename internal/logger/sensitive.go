package logger

import (
	"net/url"
	"regexp"
	"strings"
)

// sensitiveDataPatterns match credentials that must never reach a log sink
var sensitiveDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9-._~+/]+=*)`),
	regexp.MustCompile(`(?i)((api[_-]?key|access|auth|token|secret|passw(or)?d)[\s:=]+)([^;,&\s]{5,})`),
}

// sensitiveQueryKeys are query parameters redacted by RedactURL
var sensitiveQueryKeys = []string{"api_key", "apikey", "key", "token", "access_token"}

// RedactSensitiveData replaces credentials in free text with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}

	for _, pattern := range sensitiveDataPatterns {
		input = pattern.ReplaceAllString(input, "${1}[REDACTED]")
	}

	return input
}

// RedactURL returns u as a string with credential query values replaced
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	q := u.Query()
	changed := false
	for key := range q {
		for _, sensitive := range sensitiveQueryKeys {
			if strings.EqualFold(key, sensitive) {
				q.Set(key, "[REDACTED]")
				changed = true
			}
		}
	}

	if !changed {
		return u.String()
	}

	redacted := *u
	redacted.RawQuery = q.Encode()
	return redacted.String()
}
