package messaging_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/fixhub/internal/marketplace"
	"github.com/sudo-init-do/fixhub/internal/messaging"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/store/memory"
	"github.com/sudo-init-do/fixhub/internal/user"
)

type feedEvent struct {
	Type string            `json:"type"`
	Data marketplace.Event `json:"data"`
}

func newServer(t *testing.T) (*messaging.Hub, *httptest.Server) {
	t.Helper()
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.CreateUser(ctx, &user.User{ID: "cust-1", Role: user.RoleCustomer, Email: "c@x.test", Active: true}))
	require.NoError(t, st.CreateUser(ctx, &user.User{ID: "pro-1", Role: user.RolePro, Email: "p@x.test", Active: true,
		Profile: user.Profile{Trades: []pricing.Trade{pricing.Plumbing}}}))

	hub := messaging.NewHub()
	h := messaging.NewHandler(hub, st)
	e := echo.New()
	// Stand-in for the JWT middleware.
	e.GET("/ws/feed", h.Feed, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id := c.QueryParam("as"); id != "" {
				c.Set("user_id", id)
				c.Set("role", strings.SplitN(id, "-", 2)[0])
			}
			return next(c)
		}
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, as string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/feed?as=" + as
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func waitSubscribed(t *testing.T, hub *messaging.Hub, userID string) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Subscribers(userID) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func read(t *testing.T, ws *websocket.Conn) feedEvent {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	var evt feedEvent
	require.NoError(t, json.Unmarshal(msg, &evt))
	return evt
}

func TestFeedDeliversOwnJobEvents(t *testing.T) {
	hub, srv := newServer(t)
	cust := dial(t, srv, "cust-1")
	waitSubscribed(t, hub, "cust-1")

	hub.Notify(context.Background(), marketplace.Event{Type: marketplace.EventArrived, JobID: "job-1", CustomerID: "cust-1", ProID: "pro-9"})
	evt := read(t, cust)
	assert.Equal(t, string(marketplace.EventArrived), evt.Type)
	assert.Equal(t, "job-1", evt.Data.JobID)
}

func TestFeedTradeBroadcasts(t *testing.T) {
	hub, srv := newServer(t)
	pro := dial(t, srv, "pro-1")
	waitSubscribed(t, hub, "pro-1")

	ctx := context.Background()
	// Not plumbing, so the pro never sees it.
	hub.Notify(ctx, marketplace.Event{Type: marketplace.EventBroadcastPosted, JobID: "job-e", CustomerID: "cust-2", Trade: pricing.Electrical})
	hub.Notify(ctx, marketplace.Event{Type: marketplace.EventBroadcastPosted, JobID: "job-p", CustomerID: "cust-2", Trade: pricing.Plumbing})

	evt := read(t, pro)
	assert.Equal(t, "job-p", evt.Data.JobID)
}

func TestFeedUnsubscribesOnClose(t *testing.T) {
	hub, srv := newServer(t)
	ws := dial(t, srv, "cust-1")
	waitSubscribed(t, hub, "cust-1")
	require.NoError(t, ws.Close())
	assert.Eventually(t, func() bool { return hub.Subscribers("cust-1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestFeedRequiresCaller(t *testing.T) {
	_, srv := newServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/feed"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}
