// Package metrics exposes Prometheus counters for the booking engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "resource_booking",
			Name:      "booking_created_total",
			Help:      "Count of bookings successfully created.",
		},
	)

	bookingCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resource_booking",
			Name:      "booking_cancelled_total",
			Help:      "Count of bookings cancelled, by caller kind.",
		},
		[]string{"by"},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "resource_booking",
			Name:      "booking_conflict_total",
			Help:      "Count of creation attempts rejected for overlapping an active booking.",
		},
	)

	publishFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "resource_booking",
			Name:      "notification_publish_failures_total",
			Help:      "Count of failed notification publishes.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingCancelled, bookingConflicts, publishFailures)
	})
}

func IncBookingCreated() { bookingCreated.Inc() }

// IncBookingCancelled records a cancellation; by is "user" or "admin".
func IncBookingCancelled(by string) { bookingCancelled.WithLabelValues(by).Inc() }

func IncBookingConflict() { bookingConflicts.Inc() }

func IncPublishFailure() { publishFailures.Inc() }
