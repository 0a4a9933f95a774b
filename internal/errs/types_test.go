package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestExternalServiceErrorTransient(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{0, true},
		{429, true},
		{500, true},
		{503, true},
		{400, false},
		{404, false},
	}
	for _, tt := range tests {
		if got := NewExternalServiceError("api", tt.status, nil).Transient; got != tt.want {
			t.Errorf("status %d: Transient = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestValidationKeepsSentinel(t *testing.T) {
	sentinel := errors.New("invalid date")
	err := fmt.Errorf("create: %w", Validation(sentinel))

	if !IsValidation(err) {
		t.Error("IsValidation() = false through wrapping")
	}
	if !errors.Is(err, sentinel) {
		t.Error("sentinel lost")
	}
	if IsNotFound(err) || IsUnauthorized(err) || IsUnavailable(err) {
		t.Error("matched an unrelated kind")
	}
}
