package wallet

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
)

// Transactions returns the authenticated pro's payouts, newest first
func (h *Handler) Transactions(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "unauthorized or invalid user",
		})
	}

	txs, err := h.store.ListTxns(c.Request().Context(), uid)
	if err != nil {
		return apperr.JSON(c, err)
	}
	if txs == nil {
		txs = []Txn{}
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": txs})
}

// AllTransactions lists payouts across all pros for admins
func (h *Handler) AllTransactions(c echo.Context) error {
	limit := 100
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}

	txs, err := h.store.AllTxns(c.Request().Context(), limit)
	if err != nil {
		return apperr.JSON(c, err)
	}
	if txs == nil {
		txs = []Txn{}
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": txs})
}
