package tracking

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when the requested model or version does not exist.
	ErrNotFound = errors.New("resource does not exist")
	// ErrInvalidURI is returned when the tracking URI cannot be used.
	ErrInvalidURI = errors.New("invalid tracking URI")
	// ErrEmptyResponse is returned when a successful response carries no JSON body.
	ErrEmptyResponse = errors.New("empty response body")
)

const codeResourceDoesNotExist = "RESOURCE_DOES_NOT_EXIST"

// APIError is a non-successful response from the tracking server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("tracking server returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("tracking server returned %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && (e.Code == codeResourceDoesNotExist || e.Status == http.StatusNotFound)
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
