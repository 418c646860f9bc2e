// Package notifications is the in-app inbox written by the alerts worker.
package notifications

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
)

type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	JobID     string     `json:"job_id,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Store persists notifications.
type Store interface {
	// AddNotification ignores a notification whose ID is already stored.
	AddNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error)
	// MarkRead fails with not_found unless the notification belongs to
	// userID.
	MarkRead(ctx context.Context, userID, id string, at time.Time) error
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// GET /notifications?unread=true&limit=50
func (h *Handler) List(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	unread := c.QueryParam("unread") == "true"
	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	list, err := h.store.ListNotifications(c.Request().Context(), userID, unread, limit)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": list})
}

// POST /notifications/:id/read
func (h *Handler) MarkRead(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.store.MarkRead(c.Request().Context(), userID, c.Param("id"), time.Now().UTC()); err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "marked as read"})
}
