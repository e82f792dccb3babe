package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Markers that prefix every described failure, one per backend.
const (
	LocalMarker  = "Error connecting to local LLM:"
	OpenAIMarker = "Error connecting to OpenAI:"
	GeminiMarker = "Error connecting to Gemini:"
)

// UpstreamError is a non-2xx answer from the completion endpoint.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Server responded with %d: %s", e.StatusCode, e.Body)
}

// MalformedResponseError is a 2xx answer without the expected content field.
type MalformedResponseError struct {
	Cause error
}

func (e *MalformedResponseError) Error() string {
	if e.Cause != nil {
		return "Invalid response format from server: " + e.Cause.Error()
	}
	return "Invalid response format from server"
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// ConnectionError is a transport-level failure: unreachable host, timeout, cancelled context.
type ConnectionError struct {
	Cause error
}

func (e *ConnectionError) Error() string {
	return e.Cause.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// IsConnectionError reports whether err is a transport failure.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// HasFailureMarker reports whether s is a described backend failure.
func HasFailureMarker(s string) bool {
	for _, marker := range []string{LocalMarker, OpenAIMarker, GeminiMarker} {
		if strings.HasPrefix(s, marker) {
			return true
		}
	}
	return false
}
