package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
)

type BootstrapAdminRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Secret string `json:"secret" validate:"required"`
}

// POST /auth/admin/bootstrap
func (h *Handler) BootstrapAdmin(c echo.Context) error {
	if h.bootstrapSecret == "" {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "bootstrap disabled"})
	}
	req := new(BootstrapAdminRequest)
	if ok, err := bind(c, req); !ok {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.bootstrapSecret)) != 1 {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid secret"})
	}

	u, err := h.users.PromoteAdmin(c.Request().Context(), req.Email)
	if err != nil {
		return apperr.JSON(c, err)
	}
	log.Infof("Promoted %s to admin via bootstrap", u.ID)
	return c.JSON(http.StatusOK, echo.Map{"message": "user promoted to admin", "email": u.Email})
}
