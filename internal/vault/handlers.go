package vault

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/user"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GET /vault/pin
func (h *Handler) PinStatus(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	set, err := h.svc.HasPin(c.Request().Context(), caller)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"pin_set": set})
}

// POST /vault/pin
func (h *Handler) SetPin(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req struct {
		Pin     string `json:"pin"`
		Confirm string `json:"confirm"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := h.svc.SetPin(c.Request().Context(), caller, req.Pin, req.Confirm); err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "PIN set"})
}

// POST /vault/unlock
func (h *Handler) Unlock(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req struct {
		Pin string `json:"pin"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	sess, err := h.svc.Unlock(c.Request().Context(), caller, req.Pin)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

// GET /vault/methods
func (h *Handler) ListMethods(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	methods, err := h.svc.Methods(c.Request().Context(), caller)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"methods": methods})
}

// POST /vault/methods
func (h *Handler) AddMethod(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req CardInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	m, err := h.svc.AddMethod(c.Request().Context(), caller, req)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// DELETE /vault/methods/:id
func (h *Handler) RemoveMethod(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.svc.RemoveMethod(c.Request().Context(), caller, c.Param("id")); err != nil {
		return apperr.JSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
