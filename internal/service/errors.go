package service

import (
	"errors"
	"fmt"
)

// Sentinel errors form the caller-visible taxonomy.  Handlers map them
// to HTTP statuses with errors.Is; everything else is treated as an
// internal failure.
var (
	// ErrValidation covers malformed or logically invalid requests:
	// a bad time range, a start in the past, a non-existent resource.
	ErrValidation = errors.New("invalid booking request")

	// ErrConflict is returned when the requested range overlaps an
	// active booking.  Callers may retry with a different range.
	ErrConflict = errors.New("resource is not available for the selected time period")

	// ErrInvalidState rejects an illegal transition on a booking that
	// is already in a terminal state.
	ErrInvalidState = errors.New("invalid booking state")

	// ErrNotFound is returned when the booking does not exist, or
	// exists but is not visible to a non-admin caller.
	ErrNotFound = errors.New("booking not found")

	// ErrForbidden is returned when a non-owner, non-admin caller
	// reads another user's booking.
	ErrForbidden = errors.New("forbidden")

	// ErrUpstream covers transport or server failures of a
	// collaborator (price lookup, broker).  The whole operation is
	// safe to retry.
	ErrUpstream = errors.New("upstream failure")
)

// Detail variants of ErrInvalidState so callers can tell the two
// terminal rejections apart.
var (
	ErrAlreadyCancelled = fmt.Errorf("%w: booking is already cancelled", ErrInvalidState)
	ErrCancelCompleted  = fmt.Errorf("%w: cannot cancel completed booking", ErrInvalidState)
)
