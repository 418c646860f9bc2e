package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/marketplace"
	"github.com/sudo-init-do/fixhub/internal/user"
)

// GET /admin/stats
func (h *Handler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	counts, err := h.reports.CountJobsByStatus(ctx)
	if err != nil {
		return apperr.JSON(c, err)
	}
	jobs := make(map[marketplace.Status]int, len(marketplace.Statuses))
	total := 0
	for _, s := range marketplace.Statuses {
		jobs[s] = counts[s]
		total += counts[s]
	}

	totals, err := h.reports.SettlementTotals(ctx)
	if err != nil {
		return apperr.JSON(c, err)
	}

	users, err := h.accounts.List(ctx, "")
	if err != nil {
		return apperr.JSON(c, err)
	}
	byRole := map[user.Role]int{user.RoleCustomer: 0, user.RolePro: 0, user.RoleAdmin: 0}
	for _, u := range users {
		byRole[u.Role]++
	}

	return c.JSON(http.StatusOK, echo.Map{
		"jobs":            jobs,
		"jobs_total":      total,
		"users":           byRole,
		"gross":           totals.Gross,
		"fees_collected":  totals.Fees,
		"payouts":         totals.Payouts,
		"fees_formatted":  totals.Fees.String(),
		"gross_formatted": totals.Gross.String(),
	})
}
