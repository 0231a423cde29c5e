package handlers

import (
	"strings"
	"testing"

	"lenscatalog/internal/apperr"
)

func TestCheckUsesJSONFieldNames(t *testing.T) {
	req := changePasswordRequest{CurrentPassword: "x", NewPassword: "short"}
	err := check(req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := apperr.Message(err); got != "newPassword must be at least 8 characters" {
		t.Errorf("message: got %q", got)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		req     any
		wantErr string
	}{
		{"valid login", loginRequest{Username: "admin", Password: "Admin@1234"}, ""},
		{"missing username", loginRequest{Password: "Admin@1234"}, "username is required"},
		{"short username", loginRequest{Username: "ab", Password: "Admin@1234"}, "username must be at least 3 characters"},
		{"long password", loginRequest{Username: "admin", Password: strings.Repeat("a", 101)}, "password must be at most 100 characters"},
		{"missing current", changePasswordRequest{NewPassword: "longenough"}, "currentPassword is required"},
		{"totp code", totpCodeRequest{Code: "12345"}, "code must be at least 6 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := check(tt.req)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if got := apperr.Message(err); got != tt.wantErr {
				t.Errorf("got %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Aviator  ", "Aviator"},
		{"<b>Bold</b> frame", "Bold frame"},
		{"<script>alert(1)</script>Round", "Round"},
		{"Black & Gold", "Black & Gold"},
		{"แว่นกันแดด", "แว่นกันแดด"},
	}
	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}

	if sanitizePtr(nil) != nil {
		t.Error("sanitizePtr(nil) should be nil")
	}
	in := " <i>x</i> "
	if got := sanitizePtr(&in); got == nil || *got != "x" {
		t.Errorf("sanitizePtr: got %v", got)
	}
}
