package matching

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/user"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// GET /market
func (h *Handler) ListOpen(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listings, err := h.engine.ListOpen(c.Request().Context(), caller)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"broadcasts": listings})
}

// POST /market/:id/claim
func (h *Handler) Claim(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	job, err := h.engine.Claim(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"job":     job,
		"message": "Job claimed",
	})
}
