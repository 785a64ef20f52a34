package sgs

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrSeriesNotFound is returned when the SGS API knows nothing about a code.
	ErrSeriesNotFound = errors.New("series not found")

	// ErrNoMetadata is returned when the series page yields no metadata row.
	ErrNoMetadata = errors.New("no metadata for series")
)

// ErrorClass represents a classification of remote-call errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 throttling responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError represents an SGS-specific error with additional context.
type APIError struct {
	Code       int
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sgs %s error (series %d, status %d): %s: %v",
			e.ErrorClass, e.Code, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("sgs %s error (series %d, status %d): %s",
		e.ErrorClass, e.Code, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classify categorizes a remote-call outcome for observability and handling.
func classify(statusCode int, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case statusCode == 429:
		return ErrorClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}
