package admin

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/user"
)

type AdminUser struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      user.Role       `json:"role"`
	IsActive  bool            `json:"is_active"`
	Trades    []pricing.Trade `json:"trades,omitempty"`
	Score     int             `json:"score"`
	JobsDone  int             `json:"jobs_done"`
	CreatedAt time.Time       `json:"created_at"`
}

// GET /admin/users?role=pro
func (h *Handler) ListUsers(c echo.Context) error {
	role := user.Role(c.QueryParam("role"))
	switch role {
	case "", user.RoleCustomer, user.RolePro, user.RoleAdmin:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	list, err := h.accounts.List(c.Request().Context(), role)
	if err != nil {
		return apperr.JSON(c, err)
	}

	users := make([]AdminUser, 0, len(list))
	for _, u := range list {
		users = append(users, AdminUser{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      u.Role,
			IsActive:  u.Active,
			Trades:    u.Profile.Trades,
			Score:     u.Profile.Score,
			JobsDone:  u.Profile.JobsDone,
			CreatedAt: u.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

func (h *Handler) setActive(c echo.Context, active bool, message string) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user id required"})
	}
	if _, err := h.accounts.SetActive(c.Request().Context(), userID, active); err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": message, "user_id": userID})
}

// POST /admin/users/:id/suspend
func (h *Handler) SuspendUser(c echo.Context) error {
	return h.setActive(c, false, "user suspended")
}

// POST /admin/users/:id/activate
func (h *Handler) ActivateUser(c echo.Context) error {
	return h.setActive(c, true, "user activated")
}

// POST /admin/users/:id/unlock_pin
func (h *Handler) UnlockPin(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user id required"})
	}
	if err := h.lockouts.ClearLockout(c.Request().Context(), userID); err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "PIN lockout cleared", "user_id": userID})
}
