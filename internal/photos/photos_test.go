package photos

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/fixhub/internal/apperr"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestSniff(t *testing.T) {
	ct, ext, err := Sniff(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, ".png", ext)

	_, _, err = Sniff([]byte("just some text"))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, _, err = Sniff(nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestMemoryStorePut(t *testing.T) {
	m := NewMemoryStore()
	ref, err := m.Put(context.Background(), "u1", pngHeader)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "memory://photos/users/u1/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	got, ok := m.Get(ref)
	require.True(t, ok)
	assert.Equal(t, pngHeader, got)
}

func TestSupabasePublicURL(t *testing.T) {
	s := NewSupabaseStore("https://proj.supabase.co/", "key", "photos")
	assert.Equal(t, "https://proj.supabase.co/storage/v1/object/public/photos/users/u1/a.png", s.PublicURL("users/u1/a.png"))
}

func TestUploadHandler(t *testing.T) {
	e := echo.New()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("photo", "leak.png")
	require.NoError(t, err)
	_, _ = part.Write(pngHeader)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/photos", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "u1")

	h := NewHandler(NewMemoryStore())
	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "memory://photos/users/u1/")
}
