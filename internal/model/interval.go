package model

import (
	"errors"
	"time"
)

// ErrInvalidInterval is returned by NewInterval when the end of the
// range does not come strictly after its start.
var ErrInvalidInterval = errors.New("interval end must be after start")

// Interval is a half-open time range [Start, End).  A booking occupies
// its resource from Start up to but excluding End, so two bookings that
// merely touch at a boundary (one ends exactly when the other begins)
// do not conflict.  The SQL conflict predicate in the repository layer
// must use the same inequalities as Overlaps.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval validates the pair and returns the interval.  End equal
// to or before Start yields ErrInvalidInterval.
func NewInterval(start, end time.Time) (Interval, error) {
	if !end.After(start) {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open intervals share any instant.
// [a,b) and [b,c) do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Hours returns the whole number of hours contained in the interval.
// The division truncates: a 2h59m interval counts as 2 hours.  Pricing
// relies on this truncation and must never round up.
func (i Interval) Hours() int64 {
	return int64(i.End.Sub(i.Start) / time.Hour)
}
