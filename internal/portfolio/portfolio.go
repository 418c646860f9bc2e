// Package portfolio holds pros' posts of finished work.
package portfolio

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/user"
)

const DefaultCaption = "Work completed ✅"

type Post struct {
	ID        string    `json:"id"`
	ProID     string    `json:"pro_id"`
	Caption   string    `json:"caption"`
	Photos    []string  `json:"photos"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists posts. Posts are never edited except for their like
// count.
type Store interface {
	CreatePost(ctx context.Context, p *Post) error
	ListPosts(ctx context.Context, proID string) ([]Post, error)
	LikePost(ctx context.Context, id string) (*Post, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create posts work photos to the calling pro's profile.
func (s *Service) Create(ctx context.Context, c user.Caller, caption string, photos []string) (*Post, error) {
	if c.Role != user.RolePro {
		return nil, apperr.Permission(apperr.ReasonWrongRole, "only pros have a portfolio")
	}
	var refs []string
	for _, p := range photos {
		if p = strings.TrimSpace(p); p != "" {
			refs = append(refs, p)
		}
	}
	if len(refs) == 0 {
		return nil, apperr.Validation("add at least one photo")
	}
	caption = strings.TrimSpace(caption)
	if caption == "" {
		caption = DefaultCaption
	}
	p := &Post{
		ID:        uuid.New().String(),
		ProID:     c.ID,
		Caption:   caption,
		Photos:    refs,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns a pro's posts, newest first.
func (s *Service) List(ctx context.Context, proID string) ([]Post, error) {
	return s.store.ListPosts(ctx, proID)
}

func (s *Service) Like(ctx context.Context, id string) (*Post, error) {
	return s.store.LikePost(ctx, id)
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// POST /portfolio
func (h *Handler) Create(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req struct {
		Caption string   `json:"caption"`
		Photos  []string `json:"photos"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	p, err := h.svc.Create(c.Request().Context(), caller, req.Caption, req.Photos)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// GET /pros/:id/portfolio
func (h *Handler) List(c echo.Context) error {
	posts, err := h.svc.List(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}

// POST /portfolio/:id/like
func (h *Handler) Like(c echo.Context) error {
	p, err := h.svc.Like(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
