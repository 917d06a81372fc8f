package domain

import (
	"regexp"
	"strings"

	"greenviz_backend/platform/apperr"
)

// disposableDomains are throwaway email providers rejected during unlock.
// A lead captured on one of these is worthless for follow-up.
var disposableDomains = map[string]bool{
	"tempmail.com":      true,
	"guerrillamail.com": true,
	"10minutemail.com":  true,
	"throwaway.email":   true,
	"mailinator.com":    true,
	"maildrop.cc":       true,
	"trashmail.com":     true,
	"yopmail.com":       true,
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email is an immutable, validated, normalized email address.
type Email struct {
	value string
}

// NewEmail validates and normalizes a raw email string. The input is trimmed
// and lowercased before the structural and domain-reputation checks.
func NewEmail(raw string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))

	if !emailPattern.MatchString(normalized) {
		return Email{}, apperr.Validation("invalid email format")
	}

	at := strings.LastIndex(normalized, "@")
	domain := normalized[at+1:]
	if disposableDomains[domain] {
		return Email{}, apperr.Validation("disposable email addresses are not accepted")
	}

	return Email{value: normalized}, nil
}

// String returns the normalized address.
func (e Email) String() string {
	return e.value
}

// Equals compares two validated emails by normalized value.
func (e Email) Equals(other Email) bool {
	return e.value == other.value
}
