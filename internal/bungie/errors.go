package bungie

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is matched by errors.Is for any lookup Bungie could not resolve
var ErrNotFound = errors.New("not found at bungie")

// APIError is a non-success platform response
type APIError struct {
	HTTPStatus      int
	Code            int
	Status          string
	Message         string
	ThrottleSeconds int
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("bungie error %d (%s): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("bungie http %d: %s", e.HTTPStatus, e.Message)
}

// Is lets callers test for ErrNotFound without caring about the exact code
func (e *APIError) Is(target error) bool {
	if target != ErrNotFound {
		return false
	}
	return e.Code == ErrorCodeAccountNotFound || e.HTTPStatus == http.StatusNotFound
}

// Throttled reports whether the key is being rate limited
func (e *APIError) Throttled() bool {
	return e.Code == ErrorCodeThrottled || e.HTTPStatus == http.StatusTooManyRequests
}

// NetworkError wraps transport failures
type NetworkError struct {
	Err error
}

func (e NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e NetworkError) Unwrap() error {
	return e.Err
}
