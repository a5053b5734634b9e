package fetcher

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantMsg    string
	}{
		{"rate limit", 429, "rate limit exceeded"},
		{"server error", 503, "server returned an error"},
		{"client error", 404, "client error: HTTP 404"},
		{"redirect", 302, "unexpected status code: 302"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyHTTPError(tt.statusCode)
			if err.Type != ErrorTypeInvalidResponse {
				t.Errorf("Type = %q, want %q", err.Type, ErrorTypeInvalidResponse)
			}
			if err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", err.StatusCode, tt.statusCode)
			}
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
		})
	}
}

func TestFetchError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *FetchError
		want string
	}{
		{
			name: "with status",
			err:  ClassifyHTTPError(500),
			want: "invalid_response error (status 500): server returned an error",
		},
		{
			name: "with cause",
			err:  NewNetworkError(errors.New("connection refused")),
			want: "network error: network request failed: connection refused",
		},
		{
			name: "plain",
			err:  NewInvalidResponseError("reference price missing"),
			want: "invalid_response error: reference price missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewParseError(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() did not find the cause")
	}
}

func TestIsType(t *testing.T) {
	wrapped := fmt.Errorf("fetching prices: %w", NewTimeoutError(errors.New("deadline")))

	if !IsType(wrapped, ErrorTypeNetwork) {
		t.Error("IsType(network) = false for a wrapped timeout error")
	}
	if IsType(wrapped, ErrorTypeParse) {
		t.Error("IsType(parse) = true for a timeout error")
	}
	if IsType(errors.New("plain"), ErrorTypeNetwork) {
		t.Error("IsType() = true for a non-FetchError")
	}
}
