package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/user"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string    `json:"token"`
	Role  user.Role `json:"role"`
}

// ===== Login =====
// POST /auth/login
func (h *Handler) Login(c echo.Context) error {
	req := new(LoginRequest)
	if ok, err := bind(c, req); !ok {
		return err
	}

	u, err := h.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return apperr.JSON(c, err)
	}

	signed, err := IssueSession(h.secret, u.ID, string(u.Role), h.ttl, h.now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}
	log.Debugf("Login: %s", u.ID)
	return c.JSON(http.StatusOK, LoginResponse{Token: signed, Role: u.Role})
}
