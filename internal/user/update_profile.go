package user

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/location"
)

// CallerFrom reads the identity the JWT middleware stored on the context.
func CallerFrom(c echo.Context) (Caller, bool) {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return Caller{}, false
	}
	role, _ := c.Get("role").(string)
	return Caller{ID: userID, Role: Role(role)}, true
}

// Handler exposes profile endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// PATCH /user/profile
func (h *Handler) UpdateProfile(c echo.Context) error {
	caller, ok := CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	}

	var req ProfileUpdate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	u, err := h.svc.UpdateProfile(c.Request().Context(), caller.ID, req)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

type reportLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Denied    bool     `json:"denied"`
}

// PUT /user/location
func (h *Handler) ReportLocation(c echo.Context) error {
	caller, ok := CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	}

	var req reportLocationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	var p *location.Point
	if !req.Denied {
		if req.Latitude == nil || req.Longitude == nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "latitude and longitude are required"})
		}
		p = &location.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	if err := h.svc.ReportLocation(c.Request().Context(), caller.ID, p, req.Denied); err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "location updated"})
}
