package client

import (
	"errors"
	"fmt"
)

// TransportError is an opaque failure talking to the backend. The engine
// does not interpret status codes or retry; the error is surfaced to the
// caller as a user-visible notification.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport failure in %s: server returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("transport failure in %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
