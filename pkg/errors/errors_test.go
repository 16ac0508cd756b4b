package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestGetStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NewValidationError("bad"), http.StatusBadRequest},
		{NewNotFoundError("missing"), http.StatusNotFound},
		{NewProcessingError("nope", nil), http.StatusUnprocessableEntity},
		{NewUpstreamError("conversion failed", "quota", nil), http.StatusBadGateway},
		{NewNetworkError("down", nil), http.StatusServiceUnavailable},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		if got := GetStatusCode(c.err); got != c.want {
			t.Fatalf("GetStatusCode(%v): expected %d, got %d", c.err, c.want, got)
		}
	}
}

func TestGetStatusCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("save document: %w", NewNotFoundError("document not found"))

	if got := GetStatusCode(err); got != http.StatusNotFound {
		t.Fatalf("expected %d for wrapped error, got %d", http.StatusNotFound, got)
	}
	if !IsType(err, ErrorTypeNotFound) {
		t.Fatalf("expected wrapped error to be of type not_found")
	}
}

func TestPublicMessage(t *testing.T) {
	if got := PublicMessage(NewValidationError("Invalid file format")); got != "Invalid file format" {
		t.Fatalf("unexpected message: %s", got)
	}
	if got := PublicMessage(NewUpstreamError("Keyword extraction failed", "daily-transaction-limit-exceeded", nil)); got != "Keyword extraction failed: daily-transaction-limit-exceeded" {
		t.Fatalf("unexpected message: %s", got)
	}
	if got := PublicMessage(fmt.Errorf("dial tcp: refused")); got != "Internal server error" {
		t.Fatalf("expected generic message for plain errors, got %s", got)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := NewInternalError("failed", cause)
	if err.Unwrap() != cause {
		t.Fatalf("expected cause to be returned")
	}
	if err.Error() != "internal: failed" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}
