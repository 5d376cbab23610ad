package index

import "errors"

// Sentinel errors for index operations.
var (
	ErrIndexNotFound = errors.New("index: index not found")
	ErrBadResponse   = errors.New("index: unexpected response")
)

// Op names used for error context.
const (
	OpSearch   = "_search"
	OpPing     = "ping"
	OpOpenPIT  = "_pit"
	OpClosePIT = "_pit/close"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
