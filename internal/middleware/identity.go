package middleware

import "github.com/labstack/echo/v4"

// userID returns the authenticated user set by JWTAuth, or "guest".
func userID(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v
	}
	return "guest"
}
