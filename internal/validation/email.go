package validation

import (
	"regexp"
	"strings"
)

const (
	msgEmailRequired      = "Email is required"
	msgEmailInvalid       = "Please enter a valid email address"
	msgEmailInvalidDomain = "Please enter a valid email domain"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	tldPattern   = regexp.MustCompile(`^[a-z]{2,}$`)
)

// EmailResult is the outcome of ValidateEmail.
type EmailResult struct {
	Valid bool
	Error string
}

// NormalizeEmail returns the storage key form of an address.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidateEmail checks raw against the local@domain.tld shape. Matching is done
// on the normalized form, so casing and surrounding whitespace are accepted.
func ValidateEmail(raw string) EmailResult {
	if strings.TrimSpace(raw) == "" {
		return EmailResult{Error: msgEmailRequired}
	}

	email := NormalizeEmail(raw)
	if !emailPattern.MatchString(email) {
		return EmailResult{Error: msgEmailInvalid}
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return EmailResult{Error: msgEmailInvalid}
	}

	labels := strings.Split(parts[1], ".")
	if len(labels) < 2 {
		return EmailResult{Error: msgEmailInvalidDomain}
	}

	tld := labels[len(labels)-1]
	if !tldPattern.MatchString(tld) {
		return EmailResult{Error: msgEmailInvalidDomain}
	}

	if labels[0] == "" || labels[len(labels)-2] == "" {
		return EmailResult{Error: msgEmailInvalidDomain}
	}

	return EmailResult{Valid: true}
}
