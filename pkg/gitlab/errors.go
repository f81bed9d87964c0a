package gitlab

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Static errors for err113 compliance.
var (
	ErrURLRequired          = errors.New("GitLab URL is required")
	ErrConfigRequired       = errors.New("config is required")
	ErrProjectIDRequired    = errors.New("project ID is required")
	ErrInvalidProjectID     = errors.New("project ID must be an int or a string")
	ErrSHARequired          = errors.New("SHA is required")
	ErrRefsRequired         = errors.New("at least two refs are required")
	ErrSubmoduleRequired    = errors.New("submodule path is required")
	ErrBranchRequired       = errors.New("branch is required")
	ErrCommitSHARequired    = errors.New("commit SHA is required")
	ErrVersionRequired      = errors.New("version is required")
	ErrInvalidVersion       = errors.New("version must follow semantic versioning")
	ErrInvalidArchiveFormat = errors.New("invalid archive format")
	ErrInvalidChunkSize     = errors.New("chunk size must be a positive integer")
	ErrInvalidResponseMode  = errors.New("invalid response mode")
	ErrNoMoreItems          = errors.New("no more items")
	ErrTotalUnknown         = errors.New("server did not declare a total item count")
	ErrInstanceNotFound     = errors.New("GitLab instance not found in configuration")
	ErrNoDefaultInstance    = errors.New("no default GitLab instance configured")
)

// HTTPError is a final non-2xx response from the API.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	// Reason is the reason phrase of the status line.
	Reason string
	// Message is extracted from the GitLab error body when possible.
	Message string
	Body    []byte
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	status := fmt.Sprintf("%d %s", e.StatusCode, e.Reason)
	if e.Message == "" {
		return fmt.Sprintf("gitlab: %s %s: %s", e.Method, e.URL, status)
	}

	return fmt.Sprintf("gitlab: %s %s: %s: %s", e.Method, e.URL, status, e.Message)
}

// RedirectError is returned when a mutating request is answered with a
// redirect. The request is not resubmitted to the new location.
type RedirectError struct {
	Method     string
	URL        string
	Location   string
	StatusCode int
	Reason     string
}

// Error implements the error interface.
func (e *RedirectError) Error() string {
	return fmt.Sprintf(
		"gitlab: %s %s was redirected to %s (%d %s); redirects are not followed for %s requests, update the configured URL",
		e.Method, e.URL, e.Location, e.StatusCode, e.Reason, e.Method,
	)
}

// ParsingError is returned for a successful response whose body is not
// valid JSON.
type ParsingError struct {
	URL         string
	ContentType string
	Err         error
}

// Error implements the error interface.
func (e *ParsingError) Error() string {
	return fmt.Sprintf("gitlab: failed to parse response from %s (content type %q): %v", e.URL, e.ContentType, e.Err)
}

// Unwrap returns the underlying decoding error.
func (e *ParsingError) Unwrap() error {
	return e.Err
}

// ConnectionError is a transport failure before any response was received.
type ConnectionError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("gitlab: %s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the transport error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// StreamError is a failure while reading a response body. Delivered counts
// the bytes already handed to the chunk sink.
type StreamError struct {
	URL       string
	Delivered int64
	Err       error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	return fmt.Sprintf("gitlab: reading response from %s failed after %d bytes: %v", e.URL, e.Delivered, e.Err)
}

// Unwrap returns the read or sink error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden reports whether err is a 403 response.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// IsRateLimited reports whether err is a 429 response.
func IsRateLimited(err error) bool {
	return hasStatus(err, http.StatusTooManyRequests)
}

// IsRedirect reports whether err is a refused redirect of a mutating request.
func IsRedirect(err error) bool {
	var redirectErr *RedirectError

	return errors.As(err, &redirectErr)
}

func hasStatus(err error, status int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == status
	}

	return false
}

// ParseErrorMessage extracts a human readable message from a GitLab error
// body. GitLab uses "message" (string, list or field map), "error" and
// "error_description"; anything else is returned as trimmed text.
func ParseErrorMessage(body []byte) string {
	var payload map[string]json.RawMessage

	err := json.Unmarshal(body, &payload)
	if err != nil {
		return strings.TrimSpace(string(body))
	}

	for _, key := range []string{"message", "error_description", "error"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}

		var text string
		if json.Unmarshal(raw, &text) == nil {
			return text
		}

		return string(raw)
	}

	return strings.TrimSpace(string(body))
}
