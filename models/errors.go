package models

import "errors"

// Error kinds surfaced by the components. Callers match with
// errors.Is; the concrete cause is wrapped alongside via %w + %v.
var (
	// ErrConfigUnavailable means the feed configuration could not be
	// read or parsed.
	ErrConfigUnavailable = errors.New("feed configuration unavailable")

	// Per-source fetch failures. These never abort a batch; they are
	// recorded in the source's outcome.
	ErrFeedUnreachable   = errors.New("feed unreachable")
	ErrFeedInvalidFormat = errors.New("feed has invalid format")
	ErrFeedTimeout       = errors.New("feed fetch timed out")

	// Store failures are fatal to the current operation.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrStoreConstraint should never surface given the
	// insert-if-absent check; it exists as a backstop for the
	// UNIQUE(source_name, url) constraint.
	ErrStoreConstraint = errors.New("store constraint violation")

	// ErrConfirmationRequired is returned by cleanup when invoked
	// without confirmation. Recoverable: re-invoke with confirmed=true.
	ErrConfirmationRequired = errors.New("confirmation required")
)
