package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{"validation", Validation("title", "Title is required"), http.StatusBadRequest},
		{"not found", NotFound("Article"), http.StatusNotFound},
		{"authorization", Authorization("Not authorized"), http.StatusForbidden},
		{"conflict", Conflict("Slug already exists"), http.StatusConflict},
		{"rate limited", RateLimited("Please wait"), http.StatusTooManyRequests},
		{"external", External("Email service", errors.New("dial tcp")), http.StatusBadGateway},
		{"internal", Internal(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFrom(t *testing.T) {
	// Already classified errors pass through unchanged.
	orig := NotFound("Category")
	if got := From(orig); got != orig {
		t.Errorf("From() = %v, want original error", got)
	}

	// Wrapped classified errors are unwrapped.
	wrapped := fmt.Errorf("listing: %w", orig)
	if got := From(wrapped); got != orig {
		t.Errorf("From(wrapped) = %v, want original error", got)
	}

	// Unknown errors become internal.
	got := From(errors.New("disk full"))
	if got.Kind != KindInternal {
		t.Errorf("Kind = %d, want KindInternal", got.Kind)
	}
	if got.Message != "Internal server error" {
		t.Errorf("Message = %q, should not leak cause", got.Message)
	}
}

func TestValidationDetails(t *testing.T) {
	err := Validation("email", "Please provide a valid email address")
	if err.Details["email"] != "Please provide a valid email address" {
		t.Errorf("Details = %v, want field entry", err.Details)
	}
}
