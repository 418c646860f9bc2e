package photos

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// POST /photos (multipart field "photo")
func (h *Handler) Upload(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "photo file is required"})
	}
	if fh.Size > MaxSize {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "photo too large"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read photo"})
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxSize+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read photo"})
	}

	ref, err := h.store.Put(c.Request().Context(), userID, data)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"ref": ref})
}
