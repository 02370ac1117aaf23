package backend

import (
	"errors"
	"fmt"
)

// APIError is a request the Task Station API answered with a non-2xx status.
// Message carries the backend-provided `message` field when the error body had
// one; callers surface it verbatim and fall back to a per-operation string
// when it is empty.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// ConnError is a transport failure: the request never produced a response.
// Callers surface connectivity wording distinct from rejection wording.
type ConnError struct {
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

// IsUnreachable reports whether err is a transport failure.
func IsUnreachable(err error) bool {
	var connErr *ConnError
	return errors.As(err, &connErr)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// MessageOr returns the backend-provided message from err when present, the
// connectivity message when err is a transport failure, and the fallback
// otherwise. It implements the error-surfacing policy every action shares.
func MessageOr(err error, connMessage, fallback string) string {
	if IsUnreachable(err) {
		return connMessage
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
