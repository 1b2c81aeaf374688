package engine

import (
	"errors"
	"fmt"
)

// FlowErrorCode categorizes orchestration errors.
type FlowErrorCode string

const (
	// ErrCodeStale indicates a response resolved after a newer request for
	// the same endpoint had already been issued; the response was discarded.
	ErrCodeStale FlowErrorCode = "STALE_RESPONSE"

	// ErrCodeTransport indicates the backend call itself failed.
	ErrCodeTransport FlowErrorCode = "TRANSPORT_FAILURE"

	// ErrCodeBadResponse indicates the backend response was missing the
	// document the flow needed.
	ErrCodeBadResponse FlowErrorCode = "BAD_RESPONSE"

	// ErrCodeState indicates the state tree could not supply or accept the
	// entities the flow required.
	ErrCodeState FlowErrorCode = "STATE_ERROR"
)

// FlowError is a structured error raised by an orchestrated flow.
type FlowError struct {
	Code    FlowErrorCode
	Op      string
	Message string
	Err     error
}

func (e *FlowError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Op, e.Err)
}

func (e *FlowError) Unwrap() error { return e.Err }

// IsStale reports whether err marks a discarded stale response.
func IsStale(err error) bool {
	var fe *FlowError
	return errors.As(err, &fe) && fe.Code == ErrCodeStale
}

func flowErr(code FlowErrorCode, op string, err error) error {
	return &FlowError{Code: code, Op: op, Err: err}
}

func flowErrf(code FlowErrorCode, op, format string, args ...any) error {
	return &FlowError{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}
