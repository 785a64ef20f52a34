package sgs

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		err        error
		want       ErrorClass
	}{
		{name: "network error", err: errors.New("connection refused"), want: ErrorClassNetwork},
		{name: "rate limit", statusCode: 429, want: ErrorClassRateLimit},
		{name: "not found", statusCode: 404, want: ErrorClassClient},
		{name: "bad request", statusCode: 400, want: ErrorClassClient},
		{name: "server error", statusCode: 500, want: ErrorClassServer},
		{name: "bad gateway", statusCode: 502, want: ErrorClassServer},
		{name: "ok", statusCode: 200, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.statusCode, tt.err); got != tt.want {
				t.Errorf("classify(%d, %v) = %q, want %q", tt.statusCode, tt.err, got, tt.want)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{
		Code:       433,
		StatusCode: 500,
		ErrorClass: ErrorClassServer,
		Message:    "500 Internal Server Error",
	}

	want := "sgs server error (series 433, status 500): 500 Internal Server Error"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	err := &APIError{
		Code:       433,
		StatusCode: 404,
		ErrorClass: ErrorClassClient,
		Message:    "404 Not Found",
		Err:        ErrSeriesNotFound,
	}

	if !errors.Is(err, ErrSeriesNotFound) {
		t.Error("errors.Is should match ErrSeriesNotFound through Unwrap")
	}

	var apiErr *APIError
	if !errors.As(error(err), &apiErr) {
		t.Error("errors.As should extract *APIError")
	}
}
