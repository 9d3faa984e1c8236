package isy

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrUnauthorized = errors.New("isy: authentication rejected")
	ErrNotFound     = errors.New("isy: node or resource not found")
	ErrUnavailable  = errors.New("isy: host unreachable or transport failure")
	ErrBadStatus    = errors.New("isy: unexpected response status")
)

// Error wraps the sentinel errors with operation context.
type Error struct {
	Sentinel  error
	Operation string
	Status    int
	Err       error // nested lower-level error (e.g. net.Error)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("isy: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Sentinel
}
