package user

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
)

// GET /users/:id
func (h *Handler) GetPublicProfile(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}

	p, err := h.svc.PublicProfile(c.Request().Context(), userID)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// GET /pros/featured
func (h *Handler) FeaturedPros(c echo.Context) error {
	caller, ok := CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	pros, err := h.svc.FeaturedPros(c.Request().Context(), caller.ID)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"pros": pros})
}
