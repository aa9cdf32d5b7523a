package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/resource-booking/internal/handler"
	"github.com/iliyamo/resource-booking/internal/middleware"
)

// RegisterRoutes wires all endpoints on the provided Echo instance.
// /healthz and /metrics are unauthenticated; everything under /v1
// requires a valid gateway-issued JWT with a USER or ADMIN role.  The
// admin distinction itself is made inside the handlers from the role
// claim, never from request parameters.
func RegisterRoutes(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("USER", handler.AdminRole),
	)
	g.POST("/bookings", h.CreateBooking)
	g.GET("/bookings", h.ListMyBookings)
	// The static route must be registered alongside the :id route;
	// Echo matches static segments first.
	g.GET("/bookings/availability", h.CheckAvailability)
	g.GET("/bookings/:id", h.GetBooking)
	g.DELETE("/bookings/:id", h.CancelBooking)
	g.GET("/resources/:id/bookings", h.ListResourceBookings)
}
