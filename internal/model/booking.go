package model

import "time"

// BookingStatus enumerates the lifecycle states of a booking.  PENDING
// is reserved for a future approval workflow; creation currently goes
// straight to CONFIRMED.  COMPLETED is assigned by an external
// completion process, never by this service.
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCancelled BookingStatus = "CANCELLED"
	StatusCompleted BookingStatus = "COMPLETED"
)

// ActiveStatuses are the states that occupy a resource's calendar.
// Only bookings in one of these states participate in conflict checks.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed}

// Booking records a user's claim on a resource for a half-open time
// range [StartTime, EndTime), both UTC.  UserID is the JWT subject of
// the creator.  TotalPrice is the hourly price times the truncated
// whole-hour count, computed once at creation and immutable afterwards.
// Timestamps are server-assigned.
type Booking struct {
	ID         uint64        `json:"id"`
	ResourceID uint64        `json:"resourceId"`
	UserID     string        `json:"userId"`
	StartTime  time.Time     `json:"startTime"`
	EndTime    time.Time     `json:"endTime"`
	TotalPrice Cents         `json:"totalPrice"`
	Status     BookingStatus `json:"status"`
	Notes      *string       `json:"notes,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// Interval returns the booked time range.
func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// IsTerminal reports whether the booking is in a state that can no
// longer be cancelled.
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCancelled || b.Status == StatusCompleted
}
