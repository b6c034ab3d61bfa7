package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned when the endpoint URL cannot be built from the base URL.
	ErrInvalidURL = errors.New("invalid backend URL")

	// ErrTransport is returned when the request could not be sent or the response not read.
	ErrTransport = errors.New("backend transport error")

	// ErrUnexpectedStatus is matched by every *StatusError.
	ErrUnexpectedStatus = errors.New("unexpected backend status")

	// ErrMalformedResponse is returned for a 200 response whose body is not the expected JSON.
	ErrMalformedResponse = errors.New("malformed backend response")
)

// StatusError reports a non-200 response. It matches ErrUnexpectedStatus.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected backend status: %d", e.StatusCode)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}
