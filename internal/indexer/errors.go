package indexer

import (
	"errors"
	"fmt"

	"lpAnalytics/internal/chain"
)

var (
	// ErrWindowTooLarge marks a log query the provider rejected. The controller recovers by shrinking the window.
	ErrWindowTooLarge = errors.New("window too large")
	// ErrFetchExhausted is returned when the window cannot shrink any further without a successful call.
	ErrFetchExhausted = errors.New("fetch exhausted")
)

// WindowError reports a rejected window. It matches ErrWindowTooLarge whatever the classification,
// so a transient failure that outlived its retries is handled like an overflow.
type WindowError struct {
	Range BlockRange
	Class chain.ErrorClass
	Err   error
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("window %s rejected (%s): %v", e.Range, e.Class, e.Err)
}

func (e *WindowError) Unwrap() error {
	return e.Err
}

func (e *WindowError) Is(target error) bool {
	return target == ErrWindowTooLarge
}
