package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/resource-booking/internal/model"
	"github.com/iliyamo/resource-booking/internal/service"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Create(ctx context.Context, resourceID uint64, userID string, start, end time.Time, notes *string, token string) (*model.Booking, error) {
	args := m.Called(ctx, resourceID, userID, start, end, notes, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *mockEngine) Cancel(ctx context.Context, id uint64, userID string, isAdmin bool) (*model.Booking, error) {
	args := m.Called(ctx, id, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *mockEngine) CheckAvailability(ctx context.Context, resourceID uint64, start, end time.Time) (bool, error) {
	args := m.Called(ctx, resourceID, start, end)
	return args.Bool(0), args.Error(1)
}

func (m *mockEngine) GetByID(ctx context.Context, id uint64, userID string, isAdmin bool) (*model.Booking, error) {
	args := m.Called(ctx, id, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *mockEngine) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Booking), args.Error(1)
}

func (m *mockEngine) ListByResource(ctx context.Context, resourceID uint64) ([]model.Booking, error) {
	args := m.Called(ctx, resourceID)
	return args.Get(0).([]model.Booking), args.Error(1)
}

// newContext builds an echo context with the values the JWT middleware
// would have injected.
func newContext(t *testing.T, method, target, body, userID, role string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", role)
	c.Set("token", "raw-token")
	return c, rec
}

func TestCreateBookingReturnsCreated(t *testing.T) {
	eng := new(mockEngine)
	h := NewBookingHandler(eng)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)
	created := &model.Booking{ID: 42, ResourceID: 7, UserID: "user-1", StartTime: start, EndTime: end,
		TotalPrice: 7650, Status: model.StatusConfirmed}

	eng.On("Create", mock.Anything, uint64(7), "user-1", start, end, (*string)(nil), "raw-token").
		Return(created, nil)

	body := `{"resourceId":7,"startTime":"2026-09-01T10:00:00Z","endTime":"2026-09-01T13:00:00Z"}`
	c, rec := newContext(t, http.MethodPost, "/v1/bookings", body, "user-1", "USER")

	assert.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalPrice":76.50`)
	assert.Contains(t, rec.Body.String(), `"status":"CONFIRMED"`)
	eng.AssertExpectations(t)
}

func TestCreateBookingMapsConflict(t *testing.T) {
	eng := new(mockEngine)
	h := NewBookingHandler(eng)

	eng.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, service.ErrConflict)

	body := `{"resourceId":7,"startTime":"2026-09-01T10:30:00Z","endTime":"2026-09-01T11:30:00Z"}`
	c, rec := newContext(t, http.MethodPost, "/v1/bookings", body, "user-1", "USER")

	assert.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateBookingRejectsMissingFields(t *testing.T) {
	eng := new(mockEngine)
	h := NewBookingHandler(eng)

	c, rec := newContext(t, http.MethodPost, "/v1/bookings", `{"resourceId":0}`, "user-1", "USER")
	assert.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	eng.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetBookingMapsTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"not found", service.ErrNotFound, http.StatusNotFound},
		{"upstream", service.ErrUpstream, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng := new(mockEngine)
			h := NewBookingHandler(eng)
			eng.On("GetByID", mock.Anything, uint64(5), "user-1", false).Return(nil, tc.err)

			c, rec := newContext(t, http.MethodGet, "/v1/bookings/5", "", "user-1", "USER")
			c.SetParamNames("id")
			c.SetParamValues("5")

			assert.NoError(t, h.GetBooking(c))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestGetBookingAdminFlagFromRole(t *testing.T) {
	eng := new(mockEngine)
	h := NewBookingHandler(eng)
	b := &model.Booking{ID: 5, UserID: "someone-else"}
	eng.On("GetByID", mock.Anything, uint64(5), "admin-1", true).Return(b, nil)

	c, rec := newContext(t, http.MethodGet, "/v1/bookings/5", "", "admin-1", AdminRole)
	c.SetParamNames("id")
	c.SetParamValues("5")

	assert.NoError(t, h.GetBooking(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	eng.AssertExpectations(t)
}

func TestCancelBookingMapsInvalidState(t *testing.T) {
	eng := new(mockEngine)
	h := NewBookingHandler(eng)
	eng.On("Cancel", mock.Anything, uint64(5), "user-1", false).Return(nil, service.ErrAlreadyCancelled)

	c, rec := newContext(t, http.MethodDelete, "/v1/bookings/5", "", "user-1", "USER")
	c.SetParamNames("id")
	c.SetParamValues("5")

	assert.NoError(t, h.CancelBooking(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckAvailabilityParsesQuery(t *testing.T) {
	eng := new(mockEngine)
	h := NewBookingHandler(eng)

	start := time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	eng.On("CheckAvailability", mock.Anything, uint64(7), start, end).Return(true, nil)

	target := "/v1/bookings/availability?resourceId=7&startTime=2026-09-01T11:00:00Z&endTime=2026-09-01T12:00:00Z"
	c, rec := newContext(t, http.MethodGet, target, "", "user-1", "USER")

	assert.NoError(t, h.CheckAvailability(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":true`)

	c, rec = newContext(t, http.MethodGet, "/v1/bookings/availability?resourceId=7&startTime=bogus", "", "user-1", "USER")
	assert.NoError(t, h.CheckAvailability(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
