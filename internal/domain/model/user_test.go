package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewUser(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		wantEmail string
		wantErr   error
	}{
		{"valid", "u1@x.com", "u1@x.com", nil},
		{"normalized", "  U1@X.com ", "u1@x.com", nil},
		{"empty", "", "", ErrInvalidEmail},
		{"missing at", "u1.x.com", "", ErrInvalidEmail},
		{"display name form rejected", "Bob <bob@x.com>", "", ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := NewUser(tt.email, "hash")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewUser() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if user.Email != tt.wantEmail {
				t.Errorf("Email = %q, want %q", user.Email, tt.wantEmail)
			}
			if user.ID == uuid.Nil {
				t.Error("NewUser() should generate an ID")
			}
			if user.PasswordHash != "hash" {
				t.Errorf("PasswordHash = %q, want %q", user.PasswordHash, "hash")
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"too short", "12345", ErrPasswordTooShort},
		{"min length", "123456", nil},
		{"max length", strings.Repeat("p", 72), nil},
		{"too long", strings.Repeat("p", 73), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePassword(tt.password); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePassword() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsValidationError(t *testing.T) {
	if !IsValidationError(ErrEmptyTitle) {
		t.Error("ErrEmptyTitle should be a validation error")
	}
	if !IsValidationError(fmt.Errorf("create video: %w", ErrInvalidDuration)) {
		t.Error("wrapped ErrInvalidDuration should be a validation error")
	}
	if IsValidationError(errors.New("connection refused")) {
		t.Error("arbitrary error should not be a validation error")
	}
	if IsValidationError(nil) {
		t.Error("nil should not be a validation error")
	}
}
