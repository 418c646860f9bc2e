package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
)

const forgotMessage = "If the email exists, a reset code has been sent."

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /auth/password/forgot
// Always responds with the same message to avoid user enumeration.
func (h *Handler) ForgotPassword(c echo.Context) error {
	req := new(ForgotPasswordRequest)
	if ok, err := bind(c, req); !ok {
		return err
	}
	if err := h.users.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		if apperr.KindOf(err) == apperr.KindCollaborator {
			return apperr.JSON(c, err)
		}
		log.Warnf("Password reset request failed: %v", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": forgotMessage})
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// POST /auth/password/reset
func (h *Handler) ResetPassword(c echo.Context) error {
	req := new(ResetPasswordRequest)
	if ok, err := bind(c, req); !ok {
		return err
	}
	if err := h.users.ResetPassword(c.Request().Context(), req.Email, req.Code, req.NewPassword); err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated successfully"})
}
