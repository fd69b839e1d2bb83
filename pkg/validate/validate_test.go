package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last+tag@sub.example.co.uk",
		"a@b.cd",
	}
	for _, email := range valid {
		assert.True(t, IsValidEmail(email), "expected %q to be valid", email)
	}

	invalid := []string{
		"",
		"not-an-email",
		"missing@tld",
		"@example.com",
		"user@",
		"user @example.com",
		"a@b.c" + strings.Repeat("x", 260), // over the 254-char cap
	}
	for _, email := range invalid {
		assert.False(t, IsValidEmail(email), "expected %q to be invalid", email)
	}
}

func TestContainsSQLInjection(t *testing.T) {
	malicious := []string{
		"'; DROP TABLE users;--",
		"1 OR 1=1",
		"admin' OR 'a'='a",
		"UNION SELECT password FROM accounts",
		"foo /* comment */ bar",
		"exec xp_cmdshell",
	}
	for _, input := range malicious {
		assert.True(t, ContainsSQLInjection(input), "expected %q to be flagged", input)
	}

	benign := []string{
		"The quick brown fox jumps over the lazy dog",
		"user@example.com",
		"A perfectly normal bio about hiking",
	}
	for _, input := range benign {
		assert.False(t, ContainsSQLInjection(input), "expected %q to pass", input)
	}
}

func TestContainsXSS(t *testing.T) {
	malicious := []string{
		"<script>alert(1)</script>",
		"<SCRIPT src=evil.js>",
		"<iframe src=\"https://evil.example\">",
		"javascript:alert(document.cookie)",
		"<img src=x onerror=alert(1)>",
		"<div onmouseover=\"steal()\">",
	}
	for _, input := range malicious {
		assert.True(t, ContainsXSS(input), "expected %q to be flagged", input)
	}

	benign := []string{
		"The quick brown fox jumps over the lazy dog",
		"5 < 6 and 7 > 4",
		"I wrote some java today",
	}
	for _, input := range benign {
		assert.False(t, ContainsXSS(input), "expected %q to pass", input)
	}
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "hello", Sanitize("  hello  "))
	assert.Equal(t, "scriptalert(1)/script", Sanitize("<script>alert(1)</script>"))
	assert.Equal(t, "no change", Sanitize("no change"))

	long := strings.Repeat("a", 1500)
	assert.Len(t, Sanitize(long), 1000)
}
