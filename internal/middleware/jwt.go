package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auditorium-booking/internal/identity"
	"github.com/iliyamo/auditorium-booking/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token.
// On success the caller is stored twice: in the request context (read by
// handlers through identity.From) and under the "user_id"/"role" keys of
// the echo context for the rate limiter and request logger.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			id := identity.Identity{UserID: claims.Subject, Role: claims.Role}
			req := c.Request()
			c.SetRequest(req.WithContext(identity.With(req.Context(), id)))
			c.Set("user_id", id.UserID)
			c.Set("role", id.Role)
			return next(c)
		}
	}
}
