package client

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the server rejects the request with
	// 401 and no recovery is possible for this call.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionExpired is returned when the refresh credential itself was
	// rejected. The caller must log in again; retrying will not help.
	ErrSessionExpired = errors.New("session expired")
)

// APIError carries the error payload of a non-2xx API response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}
