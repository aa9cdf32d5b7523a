package handler

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// AdminRole is the role claim value that unlocks admin operations.
const AdminRole = "ADMIN"

// getUserID extracts the authenticated subject from the context.  The
// JWT middleware stores the sub claim as-is, so a non-string or empty
// value means the request slipped past authentication.
func getUserID(c echo.Context) (string, error) {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v, nil
	}
	return "", errors.New("invalid user_id in context")
}

// isAdmin reports whether the caller carries the admin role.
func isAdmin(c echo.Context) bool {
	role, ok := c.Get("role").(string)
	return ok && role == AdminRole
}

// getToken returns the caller's raw bearer token for credential
// passthrough to the resource catalog.
func getToken(c echo.Context) string {
	if v, ok := c.Get("token").(string); ok {
		return v
	}
	return ""
}
