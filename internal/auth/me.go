package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/user"
)

// Me returns the currently authenticated user's own profile.
// GET /auth/me
func (h *Handler) Me(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	}
	u, err := h.users.Get(c.Request().Context(), caller.ID)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
