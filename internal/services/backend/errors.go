package backend

import (
	"errors"
	"fmt"
)

// APIError is a rejection from the backend: any reply with status >= 400.
// Body is the raw reply text, which the backend uses for business-rule messages.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: backend returned status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// StatusOf returns the backend status carried by err, or 0 for transport and
// local errors.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// BodyOf returns the backend reply text carried by err, if any.
func BodyOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Body
	}
	return ""
}

// IsStatus reports whether err is a backend rejection with the given status.
func IsStatus(err error, status int) bool {
	return StatusOf(err) == status
}
