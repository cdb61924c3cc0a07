package engine

import "errors"

// Error taxonomy. Contradiction during search is normal control flow
// (a bool return, not an error) and is never represented here;
// everything else is surfaced upward to the host.
var (
	// ErrInvalidConstraint is returned when a handler's Initialize
	// detects a statically impossible input (unreachable sum,
	// visibility > line length, SameValues size mismatch, ...). The
	// builder reports these as "unsatisfiable" without entering search.
	ErrInvalidConstraint = errors.New("engine: invalid constraint")

	// ErrCancelled is returned when the host's cancellation flag (or a
	// wall-clock timeout, a special case of cancellation) fired during
	// search. The engine instance must not be reused without
	// reinitializing.
	ErrCancelled = errors.New("engine: search cancelled")
)
