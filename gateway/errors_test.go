package gateway

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorRetryability(t *testing.T) {
	retryAfter := 10 * time.Second

	tests := []struct {
		name      string
		err       *Error
		wantType  ErrorType
		retryable bool
	}{
		{"config", NewConfigError("missing API key"), ErrorTypeConfig, false},
		{"rate limit", NewRateLimitError("slow down", &retryAfter, nil), ErrorTypeRateLimit, true},
		{"server", NewServerError("overloaded", 529, nil), ErrorTypeServer, true},
		{"timeout", NewTimeoutError("deadline exceeded", nil), ErrorTypeTimeout, true},
		{"client", NewClientError("bad request", 400, nil), ErrorTypeClient, false},
		{"circuit open", NewCircuitOpenError("breaker open"), ErrorTypeCircuitOpen, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", tt.err.Type, tt.wantType)
			}
			if got := IsRetryableError(tt.err); got != tt.retryable {
				t.Errorf("IsRetryableError() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestErrorMessageIncludesProviderError(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewTimeoutError("network error", inner)

	if got, want := err.Error(), "network error: connection refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is() did not find the wrapped provider error")
	}
}

func TestErrorTypeChecksThroughWrapping(t *testing.T) {
	err := fmt.Errorf("chat failed: %w", NewRateLimitError("slow down", nil, nil))

	if !IsRateLimitError(err) {
		t.Error("IsRateLimitError() = false for wrapped rate limit error")
	}
	if !IsRetryableError(err) {
		t.Error("IsRetryableError() = false for wrapped rate limit error")
	}
	if IsConfigError(err) {
		t.Error("IsConfigError() = true for rate limit error")
	}
}

func TestExtractRetryAfter(t *testing.T) {
	retryAfter := 7 * time.Second

	if got := ExtractRetryAfter(NewRateLimitError("slow down", &retryAfter, nil)); got == nil || *got != retryAfter {
		t.Errorf("ExtractRetryAfter() = %v, want %v", got, retryAfter)
	}
	if got := ExtractRetryAfter(NewRateLimitError("slow down", nil, nil)); got != nil {
		t.Errorf("ExtractRetryAfter() = %v, want nil when header absent", got)
	}
	if got := ExtractRetryAfter(errors.New("plain error")); got != nil {
		t.Errorf("ExtractRetryAfter() = %v, want nil for non-gateway error", got)
	}
}

func TestIsCheckersRejectPlainErrors(t *testing.T) {
	err := errors.New("plain error")

	if IsRetryableError(err) {
		t.Error("IsRetryableError() = true for plain error")
	}
	if IsRateLimitError(err) {
		t.Error("IsRateLimitError() = true for plain error")
	}
	if IsCircuitOpenError(err) {
		t.Error("IsCircuitOpenError() = true for plain error")
	}
	if IsTimeoutError(err) {
		t.Error("IsTimeoutError() = true for plain error")
	}
}
