package fetcher

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error that occurred during a fetch operation
type ErrorType string

const (
	// ErrorTypeNetwork indicates a transport-level error (connection refused, DNS, timeout, etc.)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeInvalidResponse indicates a non-success HTTP status, or a parsed
	// response that lacks a usable value
	ErrorTypeInvalidResponse ErrorType = "invalid_response"
	// ErrorTypeParse indicates the response body was not valid data of the expected shape
	ErrorTypeParse ErrorType = "parse"
)

// FetchError represents a structured error from a fetch operation
type FetchError struct {
	Type       ErrorType
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Type, msg)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a network error
func NewNetworkError(cause error) *FetchError {
	return &FetchError{
		Type:    ErrorTypeNetwork,
		Message: "network request failed",
		Cause:   cause,
	}
}

// NewTimeoutError creates a network error for a request that ran out of time
func NewTimeoutError(cause error) *FetchError {
	return &FetchError{
		Type:    ErrorTypeNetwork,
		Message: "request timed out",
		Cause:   cause,
	}
}

// NewInvalidResponseError creates an invalid response error
func NewInvalidResponseError(message string) *FetchError {
	return &FetchError{
		Type:    ErrorTypeInvalidResponse,
		Message: message,
	}
}

// NewParseError creates a parse error
func NewParseError(cause error) *FetchError {
	return &FetchError{
		Type:    ErrorTypeParse,
		Message: "failed to parse response body",
		Cause:   cause,
	}
}

// ClassifyHTTPError classifies a non-success HTTP status code into an invalid response error
func ClassifyHTTPError(statusCode int) *FetchError {
	var message string
	switch {
	case statusCode == http.StatusTooManyRequests:
		message = "rate limit exceeded"
	case statusCode >= 500:
		message = "server returned an error"
	case statusCode >= 400:
		message = fmt.Sprintf("client error: HTTP %d", statusCode)
	default:
		message = fmt.Sprintf("unexpected status code: %d", statusCode)
	}

	return &FetchError{
		Type:       ErrorTypeInvalidResponse,
		StatusCode: statusCode,
		Message:    message,
	}
}

// IsType reports whether err wraps a FetchError of the given type
func IsType(err error, t ErrorType) bool {
	var fe *FetchError
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Type == t
}
