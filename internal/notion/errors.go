package notion

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is an error response from the Notion API.
type APIError struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("notion: %s (status %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("notion: status %d: %s", e.Status, e.Message)
}

// StatusCode returns the HTTP status of the failed call.
// The retry executor classifies rate limiting through it.
func (e *APIError) StatusCode() int {
	return e.Status
}

// StatusOf extracts the HTTP status from err, or 0 when err is not an API error.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is an authorization failure (401/403).
func IsUnauthorized(err error) bool {
	status := StatusOf(err)
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}
