// Package queue defines the notification contract shared by the
// booking service and the downstream consumer, and implements both
// sides of it over RabbitMQ.
package queue

import (
	"time"

	"github.com/iliyamo/resource-booking/internal/model"
)

// BookingNotification is emitted on every booking state change.  The
// field names are fixed by the consumer's subscription contract; do
// not rename them.  Times are RFC3339 strings and totalPrice is a
// decimal string, identifiers stay numeric where they are numeric in
// the store.
type BookingNotification struct {
	BookingID  uint64 `json:"bookingId"`
	UserID     string `json:"userId"`
	ResourceID uint64 `json:"resourceId"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Status     string `json:"status"`
	TotalPrice string `json:"totalPrice"`
}

// NotificationFor builds the wire event for a booking's current state.
func NotificationFor(b *model.Booking) BookingNotification {
	return BookingNotification{
		BookingID:  b.ID,
		UserID:     b.UserID,
		ResourceID: b.ResourceID,
		StartTime:  b.StartTime.UTC().Format(time.RFC3339),
		EndTime:    b.EndTime.UTC().Format(time.RFC3339),
		Status:     string(b.Status),
		TotalPrice: b.TotalPrice.String(),
	}
}
