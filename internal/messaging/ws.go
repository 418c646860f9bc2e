// Package messaging pushes live job events to connected apps over
// websockets.
package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/marketplace"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/user"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 32
)

type wsEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func userTopic(id string) string { return "user:" + id }
func tradeTopic(t pricing.Trade) string { return "trade:" + string(t) }

type client struct {
	send chan []byte
}

// Hub fans job events out to subscribed connections. Each user hears about
// their own jobs; pros also hear market changes in their trades. It
// satisfies marketplace.Notifier.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[*client]struct{})}
}

func (h *Hub) register(c *client, topics []string) {
	h.mu.Lock()
	for _, t := range topics {
		set, ok := h.topics[t]
		if !ok {
			set = make(map[*client]struct{})
			h.topics[t] = set
		}
		set[c] = struct{}{}
	}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client, topics []string) {
	h.mu.Lock()
	for _, t := range topics {
		if set, ok := h.topics[t]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.topics, t)
			}
		}
	}
	h.mu.Unlock()
}

// Subscribers returns how many connections listen on a user's topic.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[userTopic(userID)])
}

func eventTopics(evt marketplace.Event) []string {
	topics := []string{userTopic(evt.CustomerID)}
	if evt.ProID != "" {
		topics = append(topics, userTopic(evt.ProID))
	}
	switch evt.Type {
	case marketplace.EventBroadcastPosted, marketplace.EventClaimed:
		topics = append(topics, tradeTopic(evt.Trade))
	}
	return topics
}

// Notify pushes evt to every interested connection once. Slow connections
// miss events rather than block the caller.
func (h *Hub) Notify(_ context.Context, evt marketplace.Event) {
	payload, err := json.Marshal(wsEvent{Type: string(evt.Type), Data: evt})
	if err != nil {
		log.Errorf("Marshal %s: %v", evt.Type, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[*client]struct{})
	for _, t := range eventTopics(evt) {
		for c := range h.topics[t] {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			select {
			case c.send <- payload:
			default:
				log.Debugf("Dropping %s for a slow connection", evt.Type)
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// UserReader looks up the connecting user.
type UserReader interface {
	UserByID(ctx context.Context, id string) (*user.User, error)
}

type Handler struct {
	hub   *Hub
	users UserReader
}

func NewHandler(hub *Hub, users UserReader) *Handler {
	return &Handler{hub: hub, users: users}
}

// GET /ws/feed
func (h *Handler) Feed(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	u, err := h.users.UserByID(c.Request().Context(), caller.ID)
	if err != nil {
		return apperr.JSON(c, err)
	}
	topics := []string{userTopic(u.ID)}
	if u.Role == user.RolePro {
		for _, t := range u.Profile.Trades {
			topics = append(topics, tradeTopic(t))
		}
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{send: make(chan []byte, sendBuffer)}
	h.hub.register(cl, topics)
	log.Debugf("Feed connected: user=%s topics=%v", u.ID, topics)

	done := make(chan struct{})
	go writeLoop(ws, cl, done)

	// Read loop (discard client messages; protocol is server push)
	ws.SetReadLimit(512)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	h.hub.unregister(cl, topics)
	close(done)
	_ = ws.Close()
	log.Debugf("Feed disconnected: user=%s", u.ID)
	return nil
}

func writeLoop(ws *websocket.Conn, cl *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg := <-cl.send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
