package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Storage error taxonomy. Callers discriminate with errors.Is; every
// method wraps one of these (or the raw driver error) with call context.
var (
	// ErrInvalidInput marks a caller-supplied invariant violation, such as
	// an empty profile name. Rejected before any write.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks an operation against a session id that does not
	// exist, where absence is a caller error. GetSession is the exception:
	// it returns (nil, nil) for unknown ids.
	ErrNotFound = errors.New("session not found")

	// ErrConflict marks a uniqueness violation on session creation.
	ErrConflict = errors.New("session id conflict")

	// ErrTimeout marks a persistence call that exhausted its deadline.
	ErrTimeout = errors.New("storage timeout")

	// ErrUnavailable marks a persistence layer that cannot be reached.
	ErrUnavailable = errors.New("storage unavailable")
)

// storageErr classifies a driver error into the taxonomy and attaches the
// operation name. modernc.org/sqlite does not export typed constraint
// errors, so unique violations are matched on the sqlite message.
func storageErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
