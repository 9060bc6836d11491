package d2api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnexpectedFormat is returned when a successful response does not carry
// the expected payload
var ErrUnexpectedFormat = errors.New("Parsed data format is unexpected.")

// Error is a non-2xx API response
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// newError builds the message shown to users: the server's message with the
// status, else the HTTP status text with the status, else fallback.
func newError(status int, serverMessage, fallback string) *Error {
	switch {
	case serverMessage != "":
		return &Error{Status: status, Message: fmt.Sprintf("%s (Status: %d)", serverMessage, status)}
	case http.StatusText(status) != "":
		return &Error{Status: status, Message: fmt.Sprintf("%s (Status: %d)", http.StatusText(status), status)}
	default:
		return &Error{Status: status, Message: fallback}
	}
}
