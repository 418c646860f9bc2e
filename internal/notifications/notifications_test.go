package notifications_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/fixhub/internal/notifications"
	"github.com/sudo-init-do/fixhub/internal/store/memory"
)

func seed(t *testing.T, st *memory.Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	for _, n := range []notifications.Notification{
		{ID: "n1", UserID: "cust-1", Kind: "job.assigned", Title: "Pro assigned", JobID: "j1", CreatedAt: now.Add(-2 * time.Minute)},
		{ID: "n2", UserID: "cust-1", Kind: "job.arrived", Title: "Pro arrived", JobID: "j1", CreatedAt: now.Add(-time.Minute)},
		{ID: "n3", UserID: "pro-1", Kind: "job.paid", Title: "Job paid", JobID: "j1", CreatedAt: now},
	} {
		n := n
		require.NoError(t, st.AddNotification(ctx, &n))
	}
}

func call(t *testing.T, h echo.HandlerFunc, method, target, userID, id string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user_id", userID)
	}
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	require.NoError(t, h(c))
	return rec
}

type listBody struct {
	Notifications []notifications.Notification `json:"notifications"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) []notifications.Notification {
	t.Helper()
	var body listBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Notifications
}

func TestListAndMarkRead(t *testing.T) {
	st := memory.New()
	seed(t, st)
	h := notifications.NewHandler(st)

	rec := call(t, h.List, http.MethodGet, "/notifications", "cust-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID)

	rec = call(t, h.MarkRead, http.MethodPost, "/notifications/n2/read", "cust-1", "n2")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h.List, http.MethodGet, "/notifications?unread=true", "cust-1", "")
	list = decode(t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "n1", list[0].ID)

	rec = call(t, h.List, http.MethodGet, "/notifications?limit=1", "cust-1", "")
	assert.Len(t, decode(t, rec), 1)
}

func TestMarkReadOtherUser(t *testing.T) {
	st := memory.New()
	seed(t, st)
	h := notifications.NewHandler(st)

	rec := call(t, h.MarkRead, http.MethodPost, "/notifications/n3/read", "cust-1", "n3")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, h.List, http.MethodGet, "/notifications", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDuplicateIgnored(t *testing.T) {
	st := memory.New()
	seed(t, st)
	dup := notifications.Notification{ID: "n1", UserID: "cust-1", Title: "again", CreatedAt: time.Now().UTC()}
	require.NoError(t, st.AddNotification(context.Background(), &dup))

	list, err := st.ListNotifications(context.Background(), "cust-1", false, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
