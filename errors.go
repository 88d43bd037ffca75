package whatbird

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned when a call needs tokens the client does not hold
	ErrNoSession = errors.New("no session, login first")

	// ErrInvalidKey is returned when a wallet key cannot be parsed
	ErrInvalidKey = errors.New("invalid wallet key")
)

// APIError is a non-2xx answer of the auth service
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth service returned %d: %s", e.StatusCode, e.Message)
}
