package domain

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		wantValid bool
	}{
		{name: "Valid email", email: "test@example.com", wantValid: true},
		{name: "Subdomain", email: "a.b@mail.example.co", wantValid: true},
		{name: "Empty", email: "", wantValid: false},
		{name: "Missing at", email: "invalid-email", wantValid: false},
		{name: "Missing local part", email: "@example.com", wantValid: false},
		{name: "Domain without dot", email: "test@localhost", wantValid: false},
		{name: "Domain starting with dot", email: "test@.example.com", wantValid: false},
		{name: "Display name form", email: "Bob <bob@example.com>", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err == nil) != tt.wantValid {
				t.Errorf("ValidateEmail(%q) error = %v, want valid %v", tt.email, err, tt.wantValid)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Error("expected error for short password")
	}
	if err := ValidatePassword(strings.Repeat("x", 73)); err == nil {
		t.Error("expected error for password longer than 72 bytes")
	}
	if err := ValidatePassword("correct horse"); err != nil {
		t.Errorf("expected valid password, got %v", err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Test@Example.COM "); got != "test@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}

func TestValidationError_Error(t *testing.T) {
	err := NewValidationError("email", "email is required")
	if err.Error() != "email: email is required" {
		t.Errorf("unexpected message %q", err.Error())
	}
	bare := &ValidationError{Message: "bad"}
	if bare.Error() != "bad" {
		t.Errorf("unexpected message %q", bare.Error())
	}
}
