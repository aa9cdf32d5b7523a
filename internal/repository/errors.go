// Package repository implements the persistence layer for bookings on
// top of database/sql.  It also defines sentinel error values that
// allow higher layers to distinguish failure scenarios without
// inspecting driver errors.
package repository

import "errors"

var (
	// ErrOverlap is returned when an insert cannot proceed because an
	// active booking already occupies part of the requested time range
	// on the same resource.  The service layer translates this into its
	// conflict error and ultimately into an HTTP 409 response.
	ErrOverlap = errors.New("overlapping booking exists")

	// ErrTerminalStatus is returned by UpdateStatus when the row exists
	// but already sits in a state that permits no further transitions.
	ErrTerminalStatus = errors.New("booking status is terminal")
)
