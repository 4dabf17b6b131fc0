package authclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is returned when the service answers 401.
var ErrUnauthorized = errors.New("unauthorized")

// NetworkError reports a failure to reach the auth service at all.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: contacting auth service: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusError reports an unexpected response from the auth service.
type StatusError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: unexpected status %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
