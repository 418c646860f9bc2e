package wallet

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
)

// Handler exposes wallet reads.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Balance returns the authenticated pro's wallet balance
func (h *Handler) Balance(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	balance, err := h.store.Balance(c.Request().Context(), userID)
	if err != nil {
		return apperr.JSON(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user_id":   userID,
		"balance":   balance,
		"formatted": balance.String(),
	})
}
