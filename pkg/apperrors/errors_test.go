package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{CodeInsufficientEligibleEntries, http.StatusBadRequest},
		{CodeAuthError, http.StatusUnauthorized},
		{CodeInsufficientCredits, http.StatusPaymentRequired},
		{CodeModelRateLimited, http.StatusTooManyRequests},
		{CodeModelTimeout, http.StatusInternalServerError},
		{CodeModelQuotaExceeded, http.StatusInternalServerError},
		{CodeModelProviderError, http.StatusInternalServerError},
		{CodeSchemaValidationFailed, http.StatusInternalServerError},
		{CodeSettlementError, http.StatusInternalServerError},
		{CodePersistenceError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Errorf("%s: HTTPStatus() = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestCodeOf(t *testing.T) {
	err := New(CodeInsufficientCredits, "not enough credits")
	if CodeOf(err) != CodeInsufficientCredits {
		t.Errorf("CodeOf() = %s", CodeOf(err))
	}

	wrapped := fmt.Errorf("request failed: %w", err)
	if CodeOf(wrapped) != CodeInsufficientCredits {
		t.Errorf("CodeOf(wrapped) = %s", CodeOf(wrapped))
	}

	if CodeOf(errors.New("plain")) != CodePersistenceError {
		t.Error("unclassified errors should map to PersistenceError")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeModelProviderError, "provider request failed", cause)

	if !errors.Is(err, cause) {
		t.Error("Wrap should preserve the cause for errors.Is")
	}
}

func TestWithContext(t *testing.T) {
	err := New(CodeInsufficientCredits, "not enough credits").
		WithContext("cost", 5).
		WithContext("remaining", 3)

	if err.Context["cost"] != 5 || err.Context["remaining"] != 3 {
		t.Errorf("context not attached: %v", err.Context)
	}
}

func TestErrorString(t *testing.T) {
	err := Wrap(CodeModelTimeout, "model invocation timed out", errors.New("context deadline exceeded"))

	msg := err.Error()
	for _, want := range []string{"ModelTimeout", "model invocation timed out", "context deadline exceeded"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error string %q missing %q", msg, want)
		}
	}
}
