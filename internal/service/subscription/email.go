package subscription

import (
	"regexp"
	"strings"
)

// emailPattern accepts a plain local@domain.tld shape. It is deliberately
// loose: exotic but valid addresses may be rejected, obvious garbage may not
// pass.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail lowercases and trims an address. It does not validate.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidateEmail normalizes raw and checks its shape. It returns
// ErrEmailRequired for blank input and ErrInvalidEmail when the shape test
// fails.
func ValidateEmail(raw string) (string, error) {
	email := NormalizeEmail(raw)
	if email == "" {
		return "", ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}
