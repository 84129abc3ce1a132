package api

import (
	"errors"
	"net/http"
)

const fallbackMessage = "an unknown error occurred"

// Error is the normalized shape every gateway failure collapses into.
// Message is chosen by priority: server-provided message, then transport
// error message, then a generic fallback.
type Error struct {
	Message string
	Status  int
	Code    string
	Details any
}

func (e *Error) Error() string {
	return e.Message
}

// IsUnauthorized reports whether err is a normalized 401.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
