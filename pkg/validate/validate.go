// Package validate holds the pure, stateless input checks applied before any
// request reaches the identity backend. The injection checks are heuristic
// blocklists, not parsers: they reduce injection risk but do not eliminate it,
// and must never be the only line of defense.
package validate

import (
	"regexp"
	"strings"
)

// RFC 5321 caps the total address length at 254 octets
const maxEmailLength = 254

const maxSanitizedLength = 1000

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var sqlInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(select|insert|update|delete|drop|union|alter|create|truncate|exec|execute)\b`),
	regexp.MustCompile(`(--|/\*|\*/|@@)`),
	regexp.MustCompile(`(?i)'\s*(or|and)\b`),
	regexp.MustCompile(`(?i)\b(or|and)\b\s+\d+\s*=\s*\d+`),
	regexp.MustCompile(`(?i)\bxp_\w+`),
}

var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*script[^>]*>`),
	regexp.MustCompile(`(?i)<\s*/\s*script\s*>`),
	regexp.MustCompile(`(?i)<\s*iframe`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)\bon\w+\s*=`),
	regexp.MustCompile(`(?i)<\s*(img|svg|body|embed|object)[^>]*\bon\w+`),
}

// IsValidEmail reports whether s looks like a well-formed email address
func IsValidEmail(s string) bool {
	if len(s) == 0 || len(s) > maxEmailLength {
		return false
	}
	return emailPattern.MatchString(s)
}

// ContainsSQLInjection reports whether s matches any SQL injection heuristic
func ContainsSQLInjection(s string) bool {
	for _, pattern := range sqlInjectionPatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// ContainsXSS reports whether s matches any cross-site scripting heuristic
func ContainsXSS(s string) bool {
	for _, pattern := range xssPatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// Sanitize trims whitespace, strips angle brackets, and truncates to 1000
// characters. A blunt instrument for free-text fields, not an HTML sanitizer.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("<", "", ">", "").Replace(s)

	runes := []rune(s)
	if len(runes) > maxSanitizedLength {
		s = string(runes[:maxSanitizedLength])
	}
	return s
}
