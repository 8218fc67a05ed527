package gateway

import (
	"errors"
	"time"
)

// Error represents a provider-neutral gateway error.
type Error struct {
	Type        ErrorType
	Message     string
	Retryable   bool
	RetryAfter  *time.Duration
	StatusCode  int
	ProviderErr error // Original provider-specific error
}

// ErrorType represents the category of error.
type ErrorType string

const (
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeServer      ErrorType = "server"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeClient      ErrorType = "client"
	ErrorTypeCircuitOpen ErrorType = "circuit_open"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ProviderErr != nil {
		return e.Message + ": " + e.ProviderErr.Error()
	}
	return e.Message
}

// Unwrap returns the underlying provider error.
func (e *Error) Unwrap() error {
	return e.ProviderErr
}

// IsRetryableError checks if an error is retryable.
func IsRetryableError(err error) bool {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Retryable
	}
	return false
}

// IsRateLimitError checks if an error is a rate limit error.
func IsRateLimitError(err error) bool {
	return errorTypeIs(err, ErrorTypeRateLimit)
}

// IsConfigError checks if an error is a configuration error.
func IsConfigError(err error) bool {
	return errorTypeIs(err, ErrorTypeConfig)
}

// IsCircuitOpenError checks if an error was raised by an open circuit breaker.
func IsCircuitOpenError(err error) bool {
	return errorTypeIs(err, ErrorTypeCircuitOpen)
}

// IsTimeoutError checks if an error is a timeout or network error.
func IsTimeoutError(err error) bool {
	return errorTypeIs(err, ErrorTypeTimeout)
}

func errorTypeIs(err error, t ErrorType) bool {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Type == t
	}
	return false
}

// ExtractRetryAfter extracts the retry-after duration from an error.
func ExtractRetryAfter(err error) *time.Duration {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.RetryAfter
	}
	return nil
}

// NewConfigError creates a new configuration error. Configuration errors are
// fatal and surfaced without a network attempt.
func NewConfigError(message string) *Error {
	return &Error{
		Type:      ErrorTypeConfig,
		Message:   message,
		Retryable: false,
	}
}

// NewRateLimitError creates a new rate limit error.
func NewRateLimitError(message string, retryAfter *time.Duration, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeRateLimit,
		Message:     message,
		Retryable:   true,
		RetryAfter:  retryAfter,
		StatusCode:  429,
		ProviderErr: providerErr,
	}
}

// NewServerError creates a new server-side error (5xx instability).
func NewServerError(message string, statusCode int, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeServer,
		Message:     message,
		Retryable:   true,
		StatusCode:  statusCode,
		ProviderErr: providerErr,
	}
}

// NewTimeoutError creates a new timeout or network error.
func NewTimeoutError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeTimeout,
		Message:     message,
		Retryable:   true,
		ProviderErr: providerErr,
	}
}

// NewClientError creates a new client error (non-retryable 4xx). It carries
// the provider's raw error message when that was parseable.
func NewClientError(message string, statusCode int, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeClient,
		Message:     message,
		Retryable:   false,
		StatusCode:  statusCode,
		ProviderErr: providerErr,
	}
}

// NewCircuitOpenError creates a new circuit-open error. It is raised without
// attempting a network call.
func NewCircuitOpenError(message string) *Error {
	return &Error{
		Type:      ErrorTypeCircuitOpen,
		Message:   message,
		Retryable: true,
	}
}
