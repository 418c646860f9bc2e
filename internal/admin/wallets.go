package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/user"
)

type AdminWallet struct {
	UserID    string        `json:"user_id"`
	Name      string        `json:"name"`
	Balance   pricing.Cents `json:"balance"`
	Formatted string        `json:"formatted"`
}

// GET /admin/wallets
func (h *Handler) ListWallets(c echo.Context) error {
	ctx := c.Request().Context()
	pros, err := h.accounts.List(ctx, user.RolePro)
	if err != nil {
		return apperr.JSON(c, err)
	}

	wallets := make([]AdminWallet, 0, len(pros))
	for _, p := range pros {
		bal, err := h.balances.Balance(ctx, p.ID)
		if err != nil {
			return apperr.JSON(c, err)
		}
		wallets = append(wallets, AdminWallet{UserID: p.ID, Name: p.Name, Balance: bal, Formatted: bal.String()})
	}
	return c.JSON(http.StatusOK, echo.Map{"wallets": wallets})
}
