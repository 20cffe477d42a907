package engine

import "errors"

// Failure taxonomy surfaced to callers. Transport layers map these to their
// own codes; everything else that bubbles out of the engine is an internal
// error.
var (
	// ErrNotFound marks an unknown session, storylet, or location.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument marks a bad direction token, non-positive quantity,
	// or out-of-domain value.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict marks a duplicate-position assignment that survived the
	// automatic retry.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable marks a legitimate empty result, e.g. no storylets
	// positioned yet.
	ErrUnavailable = errors.New("unavailable")
)
