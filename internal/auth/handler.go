package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/user"
)

// Welcomer sends the post-signup welcome email.
type Welcomer interface {
	EnqueueWelcomeEmail(ctx context.Context, userID, email, name string) error
}

// Handler serves the /auth endpoints.
type Handler struct {
	users           *user.Service
	secret          []byte
	ttl             time.Duration
	bootstrapSecret string
	welcome         Welcomer
	now             func() time.Time
}

func NewHandler(users *user.Service, secret []byte, ttl time.Duration, bootstrapSecret string, welcome Welcomer) *Handler {
	return &Handler{
		users:           users,
		secret:          secret,
		ttl:             ttl,
		bootstrapSecret: bootstrapSecret,
		welcome:         welcome,
		now:             time.Now,
	}
}

// bind decodes and validates a request body. It writes the 400 itself and
// reports false when the request is unusable.
func bind(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return true, nil
}

type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ===== Signup code =====
// POST /auth/otp
func (h *Handler) SendCode(c echo.Context) error {
	req := new(SendCodeRequest)
	if ok, err := bind(c, req); !ok {
		return err
	}
	if err := h.users.SendSignupCode(c.Request().Context(), req.Email); err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "verification code sent"})
}

type SignupResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// ===== Signup =====
// POST /auth/signup
func (h *Handler) Signup(c echo.Context) error {
	req := new(user.SignupInput)
	if ok, err := bind(c, req); !ok {
		return err
	}
	ctx := c.Request().Context()
	u, err := h.users.Signup(ctx, *req)
	if err != nil {
		return apperr.JSON(c, err)
	}

	signed, err := IssueSession(h.secret, u.ID, string(u.Role), h.ttl, h.now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}
	if h.welcome != nil {
		if err := h.welcome.EnqueueWelcomeEmail(ctx, u.ID, u.Email, u.Name); err != nil {
			log.Warnf("Welcome email for %s not queued: %v", u.ID, err)
		}
	}
	return c.JSON(http.StatusCreated, SignupResponse{Token: signed, User: u})
}
