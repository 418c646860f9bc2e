package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/utils"
)

// JWTMiddleware verifies the session token and stores user_id and role on
// the context.
func JWTMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, err := utils.BearerToken(c.Request().Header.Get("Authorization"))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
			}
			userID, role, err := utils.ParseSession(secret, tokenStr)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
			}
			c.Set("user_id", userID)
			c.Set("role", role)
			return next(c)
		}
	}
}
