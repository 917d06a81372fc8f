package domain

import (
	"testing"

	"greenviz_backend/platform/apperr"
)

func TestNewEmail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "a@b.fr", "a@b.fr"},
		{"normalized", "  Marie.Dupont@Example.COM ", "marie.dupont@example.com"},
		{"plus alias", "user+tag@gmail.com", "user+tag@gmail.com"},
		{"subdomain", "pro@mail.entreprise.fr", "pro@mail.entreprise.fr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, err := NewEmail(tt.input)
			if err != nil {
				t.Fatalf("NewEmail(%q): %v", tt.input, err)
			}
			if email.String() != tt.want {
				t.Fatalf("got %q, want %q", email.String(), tt.want)
			}
		})
	}
}

func TestNewEmailRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"no at", "not-an-email"},
		{"no domain", "user@"},
		{"no tld", "user@host"},
		{"space inside", "us er@b.fr"},
		{"double at", "a@@b.fr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEmail(tt.input)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("NewEmail(%q) = %v, want validation error", tt.input, err)
			}
		})
	}
}

func TestNewEmailRejectsDisposable(t *testing.T) {
	domains := []string{
		"tempmail.com",
		"guerrillamail.com",
		"10minutemail.com",
		"throwaway.email",
		"mailinator.com",
		"maildrop.cc",
		"trashmail.com",
		"yopmail.com",
	}
	for _, d := range domains {
		t.Run(d, func(t *testing.T) {
			_, err := NewEmail("visitor@" + d)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("visitor@%s accepted, want validation error", d)
			}
		})
	}

	// Case-insensitive: normalization happens before the denylist check.
	if _, err := NewEmail("Visitor@YOPMAIL.com"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("uppercased disposable domain accepted: %v", err)
	}
}

func TestEmailEquals(t *testing.T) {
	a, _ := NewEmail("A@B.FR")
	b, _ := NewEmail("a@b.fr")
	if !a.Equals(b) {
		t.Fatal("emails differing only in case must be equal")
	}
}
