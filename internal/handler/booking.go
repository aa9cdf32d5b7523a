package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resource-booking/internal/model"
	"github.com/iliyamo/resource-booking/internal/service"
)

// BookingEngine is the slice of the booking service the HTTP layer
// needs.  Handlers assume JWT authentication and role validation have
// already been performed by middleware.
type BookingEngine interface {
	Create(ctx context.Context, resourceID uint64, userID string, start, end time.Time, notes *string, token string) (*model.Booking, error)
	Cancel(ctx context.Context, id uint64, userID string, isAdmin bool) (*model.Booking, error)
	CheckAvailability(ctx context.Context, resourceID uint64, start, end time.Time) (bool, error)
	GetByID(ctx context.Context, id uint64, userID string, isAdmin bool) (*model.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
	ListByResource(ctx context.Context, resourceID uint64) ([]model.Booking, error)
}

// BookingHandler exposes the booking engine over HTTP.
type BookingHandler struct {
	Engine BookingEngine
}

// NewBookingHandler constructs a BookingHandler.  The engine must be
// non-nil.
func NewBookingHandler(engine BookingEngine) *BookingHandler {
	if engine == nil {
		panic("nil engine passed to NewBookingHandler")
	}
	return &BookingHandler{Engine: engine}
}

type createBookingRequest struct {
	ResourceID uint64    `json:"resourceId"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Notes      *string   `json:"notes"`
}

// CreateBooking handles POST /v1/bookings.  It binds the request,
// delegates to the engine and returns the persisted booking with its
// computed total price and status.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ResourceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "resourceId is required"})
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "startTime and endTime are required"})
	}
	b, err := h.Engine.Create(c.Request().Context(), req.ResourceID, userID, req.StartTime, req.EndTime, req.Notes, getToken(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// GetBooking handles GET /v1/bookings/:id.  Owners see their own
// bookings, admins see any; everyone else receives 403.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Engine.GetByID(c.Request().Context(), id, userID, isAdmin(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// ListMyBookings handles GET /v1/bookings and returns the caller's
// bookings, newest first.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Engine.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListResourceBookings handles GET /v1/resources/:id/bookings.
func (h *BookingHandler) ListResourceBookings(c echo.Context) error {
	resourceID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || resourceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	items, err := h.Engine.ListByResource(c.Request().Context(), resourceID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CancelBooking handles DELETE /v1/bookings/:id.  The caller identity
// and admin flag come from the verified token, never from request
// parameters.  The cancelled booking is returned so clients see the
// final state even when downstream notification delivery is degraded.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Engine.Cancel(c.Request().Context(), id, userID, isAdmin(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// CheckAvailability handles GET /v1/bookings/availability.  Pure
// query: true iff no active booking overlaps the requested range.
func (h *BookingHandler) CheckAvailability(c echo.Context) error {
	resourceID, err := strconv.ParseUint(c.QueryParam("resourceId"), 10, 64)
	if err != nil || resourceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resourceId"})
	}
	start, err := time.Parse(time.RFC3339, c.QueryParam("startTime"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid startTime"})
	}
	end, err := time.Parse(time.RFC3339, c.QueryParam("endTime"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid endTime"})
	}
	available, err := h.Engine.CheckAvailability(c.Request().Context(), resourceID, start, end)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available": available})
}

// writeServiceError maps the engine's error taxonomy onto HTTP
// statuses.  Anything outside the taxonomy is an internal error and
// deliberately unspecific in the response body.
func writeServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrUpstream):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "upstream failure"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
