package howl

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a reference to a howl that does not exist.
	ErrNotFound = errors.New("howl not found")

	// ErrUnauthorized marks a mutation attempted without an actor identity
	// where the active variant requires one.
	ErrUnauthorized = errors.New("actor identity required")

	// ErrConflict marks a conditional flat-collection write that lost the
	// race. Only surfaced when the conditional mode is active; the default
	// flat mode silently keeps the last writer.
	ErrConflict = errors.New("concurrent write conflict")

	// ErrUnavailable marks a document store failure. Flat-collection
	// failures carry the storage package's own sentinel instead.
	ErrUnavailable = errors.New("feed store unavailable")
)

// ValidationError reports a user-correctable create input problem.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
