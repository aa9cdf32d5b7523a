// Package service implements the reservation engine: conflict
// detection over time intervals, price computation via the resource
// catalog, cancellation state control, cache invalidation and
// notification emission on every state change.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/resource-booking/internal/metrics"
	"github.com/iliyamo/resource-booking/internal/model"
	"github.com/iliyamo/resource-booking/internal/pricing"
	"github.com/iliyamo/resource-booking/internal/queue"
	"github.com/iliyamo/resource-booking/internal/repository"
)

// BookingStore is the persistence contract the engine depends on.  The
// conflict check and insert inside CreateBooking must form one atomic
// unit with enough isolation that two concurrent creators for the same
// resource cannot both observe "no conflict"; cross-request exclusion
// is entirely the store's responsibility.
type BookingStore interface {
	CreateBooking(ctx context.Context, b *model.Booking, beforeCommit func(*model.Booking) error) error
	FindConflicting(ctx context.Context, resourceID uint64, start, end time.Time) ([]model.Booking, error)
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	GetByIDForUser(ctx context.Context, id uint64, userID string) (*model.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
	ListByResource(ctx context.Context, resourceID uint64) ([]model.Booking, error)
	UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) (*model.Booking, error)
}

// BookingCache is the cache-aside contract for single-booking reads.
type BookingCache interface {
	GetOrLoad(ctx context.Context, id uint64, load func(context.Context) (*model.Booking, error)) (*model.Booking, error)
	InvalidateAll(ctx context.Context)
}

// Publisher emits a booking notification.
type Publisher interface {
	Publish(ctx context.Context, n queue.BookingNotification) error
}

// BookingService composes the store, price source, publisher and cache
// to implement the booking use cases.  All dependencies are supplied
// through the constructor.
type BookingService struct {
	store     BookingStore
	prices    pricing.PriceSource
	publisher Publisher
	cache     BookingCache
	log       zerolog.Logger
}

// NewBookingService constructs the engine.  All dependencies must be
// non-nil.
func NewBookingService(store BookingStore, prices pricing.PriceSource, publisher Publisher, cache BookingCache, log zerolog.Logger) *BookingService {
	if store == nil || prices == nil || publisher == nil || cache == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{
		store:     store,
		prices:    prices,
		publisher: publisher,
		cache:     cache,
		log:       log,
	}
}

// Create validates the request, prices it and persists a CONFIRMED
// booking, emitting the creation notification before the insert
// commits.  The price lookup happens outside the store transaction so
// a catalog stall never holds row locks; the conflict check is run
// once up front for a fast rejection and again under locks inside the
// insert transaction, which is the authoritative one.
//
// A publish failure during creation aborts the whole operation and
// rolls the row back: a caller must never see a confirmed booking
// whose event was not emitted.  (An outbox would decouple the two at
// the cost of changing that guarantee; see DESIGN.md.)
func (s *BookingService) Create(ctx context.Context, resourceID uint64, userID string, start, end time.Time, notes *string, token string) (*model.Booking, error) {
	if resourceID == 0 {
		return nil, fmt.Errorf("%w: resource id must be positive", ErrValidation)
	}
	if !start.After(time.Now().UTC()) {
		return nil, fmt.Errorf("%w: start time must be in the future", ErrValidation)
	}
	iv, err := model.NewInterval(start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}

	// Fast-path rejection before spending a price lookup on a range
	// that is already taken.
	conflicts, err := s.store.FindConflicting(ctx, resourceID, iv.Start, iv.End)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if len(conflicts) > 0 {
		metrics.IncBookingConflict()
		return nil, ErrConflict
	}

	price, err := s.prices.PricePerHour(ctx, resourceID, token)
	switch {
	case errors.Is(err, pricing.ErrResourceNotFound):
		return nil, fmt.Errorf("%w: resource not found", ErrValidation)
	case err != nil:
		return nil, fmt.Errorf("%w: price lookup: %v", ErrUpstream, err)
	}

	hours := iv.Hours()
	if hours <= 0 {
		return nil, fmt.Errorf("%w: booking must span at least one full hour", ErrValidation)
	}

	b := &model.Booking{
		ResourceID: resourceID,
		UserID:     userID,
		StartTime:  iv.Start.UTC(),
		EndTime:    iv.End.UTC(),
		TotalPrice: price * model.Cents(hours),
		Status:     model.StatusConfirmed,
		Notes:      notes,
	}
	err = s.store.CreateBooking(ctx, b, func(created *model.Booking) error {
		if pubErr := s.publisher.Publish(ctx, queue.NotificationFor(created)); pubErr != nil {
			metrics.IncPublishFailure()
			return fmt.Errorf("%w: notification publish: %v", ErrUpstream, pubErr)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			metrics.IncBookingConflict()
			return nil, ErrConflict
		}
		return nil, err
	}

	s.cache.InvalidateAll(ctx)
	metrics.IncBookingCreated()
	s.log.Info().
		Uint64("booking_id", b.ID).
		Uint64("resource_id", b.ResourceID).
		Str("user_id", b.UserID).
		Str("total_price", b.TotalPrice.String()).
		Msg("booking created")
	return b, nil
}

// Cancel transitions a booking to CANCELLED.  A regular user may only
// cancel their own booking; an admin may cancel any booking by id.
// Bookings already in a terminal state are rejected without mutation.
//
// Unlike creation, a notification publish failure here is logged and
// swallowed: once authorized, cancellation must succeed for the user
// even when downstream messaging is degraded.
func (s *BookingService) Cancel(ctx context.Context, id uint64, userID string, isAdmin bool) (*model.Booking, error) {
	var (
		b   *model.Booking
		err error
	)
	if isAdmin {
		b, err = s.store.GetByID(ctx, id)
	} else {
		b, err = s.store.GetByIDForUser(ctx, id, userID)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}

	switch b.Status {
	case model.StatusCancelled:
		return nil, ErrAlreadyCancelled
	case model.StatusCompleted:
		return nil, ErrCancelCompleted
	}

	updated, err := s.store.UpdateStatus(ctx, id, model.StatusCancelled)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrTerminalStatus):
			// Lost a race with a concurrent transition since the read
			// above; report the state that won.
			if cur, loadErr := s.store.GetByID(ctx, id); loadErr == nil && cur.Status == model.StatusCompleted {
				return nil, ErrCancelCompleted
			}
			return nil, ErrAlreadyCancelled
		default:
			return nil, fmt.Errorf("update booking status: %w", err)
		}
	}
	s.cache.InvalidateAll(ctx)

	if pubErr := s.publisher.Publish(ctx, queue.NotificationFor(updated)); pubErr != nil {
		metrics.IncPublishFailure()
		s.log.Warn().Err(pubErr).Uint64("booking_id", updated.ID).Msg("failed to send booking notification")
	}

	by := "user"
	if isAdmin {
		by = "admin"
	}
	metrics.IncBookingCancelled(by)
	s.log.Info().Uint64("booking_id", updated.ID).Str("cancelled_by", by).Msg("booking cancelled")
	return updated, nil
}

// CheckAvailability reports whether the resource is free for the whole
// half-open range.  Pure read, no side effects.
func (s *BookingService) CheckAvailability(ctx context.Context, resourceID uint64, start, end time.Time) (bool, error) {
	if _, err := model.NewInterval(start, end); err != nil {
		return false, fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}
	conflicts, err := s.store.FindConflicting(ctx, resourceID, start, end)
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	return len(conflicts) == 0, nil
}

// GetByID returns a single booking through the read-through cache.
// Ownership is enforced after the load: a non-owner without the admin
// role receives ErrForbidden.
func (s *BookingService) GetByID(ctx context.Context, id uint64, userID string, isAdmin bool) (*model.Booking, error) {
	b, err := s.cache.GetOrLoad(ctx, id, func(ctx context.Context) (*model.Booking, error) {
		return s.store.GetByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if !isAdmin && b.UserID != userID {
		return nil, ErrForbidden
	}
	return b, nil
}

// ListByUser returns the caller's bookings.  Listings are read
// directly from the store: their keys vary with filter parameters, so
// they are not cached.
func (s *BookingService) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	items, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return items, nil
}

// ListByResource returns all bookings for a resource, uncached for the
// same reason as ListByUser.
func (s *BookingService) ListByResource(ctx context.Context, resourceID uint64) ([]model.Booking, error) {
	items, err := s.store.ListByResource(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return items, nil
}
