package checkout

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	mware "github.com/sudo-init-do/fixhub/internal/middleware"
	"github.com/sudo-init-do/fixhub/internal/user"
)

type Handler struct {
	orch *Orchestrator
}

func NewHandler(orch *Orchestrator) *Handler {
	return &Handler{orch: orch}
}

// =========================
// Pay - Customer pays the requested amount
// =========================
func (h *Handler) Pay(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req PayInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.VaultToken = c.Request().Header.Get(mware.VaultTokenHeader)

	receipt, err := h.orch.Pay(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"receipt": receipt,
		"message": "Payment successful",
	})
}
