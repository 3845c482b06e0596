package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorType represents the category of error that occurred during a fetch operation
type ErrorType string

const (
	// ErrorTypeNetwork indicates a network-level error (connection refused, DNS, etc.)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit indicates the request was rejected due to rate limiting (HTTP 429)
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeServer indicates a server error (HTTP 5xx)
	ErrorTypeServer ErrorType = "server"
	// ErrorTypeClient indicates a client error (HTTP 4xx except 429)
	ErrorTypeClient ErrorType = "client"
	// ErrorTypeValidation indicates the response was received but data validation failed
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeTimeout indicates the request timed out
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeUnknown indicates an error of unknown type
	ErrorTypeUnknown ErrorType = "unknown"
)

// FetchError represents a structured error from a fetch operation
type FetchError struct {
	Type       ErrorType
	Retryable  bool
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a validation error
func NewValidationError(message string) *FetchError {
	return &FetchError{
		Type:      ErrorTypeValidation,
		Retryable: false,
		Message:   message,
	}
}

// ClassifyHTTPError classifies an HTTP status code into an appropriate FetchError
func ClassifyHTTPError(statusCode int) *FetchError {
	switch {
	case statusCode == 429:
		return &FetchError{
			Type:       ErrorTypeRateLimit,
			Retryable:  true,
			StatusCode: statusCode,
			Message:    "rate limit exceeded",
		}
	case statusCode >= 500:
		return &FetchError{
			Type:       ErrorTypeServer,
			Retryable:  true,
			StatusCode: statusCode,
			Message:    "server returned an error",
		}
	case statusCode >= 400:
		return &FetchError{
			Type:       ErrorTypeClient,
			Retryable:  false,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("client error: HTTP %d", statusCode),
		}
	default:
		return &FetchError{
			Type:       ErrorTypeUnknown,
			Retryable:  false,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("unexpected status code: %d", statusCode),
		}
	}
}

// ClassifyError classifies a transport-level error into a FetchError
func ClassifyError(err error) *FetchError {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &FetchError{Type: ErrorTypeTimeout, Retryable: true, Message: "request timed out", Cause: err}
	case errors.As(err, &ne) && ne.Timeout():
		return &FetchError{Type: ErrorTypeTimeout, Retryable: true, Message: "request timed out", Cause: err}
	default:
		return &FetchError{Type: ErrorTypeNetwork, Retryable: true, Message: "network request failed", Cause: err}
	}
}

// errorFields extracts taxonomy details for retry logs; plain errors come
// back as unknown/retryable.
func errorFields(err error) (ErrorType, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Type, fe.Retryable
	}
	return ErrorTypeUnknown, true
}
