package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gauthierbraillon/classpulse/internal/poller"
)

const writeWait = 10 * time.Second

// PollerFactory builds a poller for an activity that reports to onChange.
type PollerFactory func(activityID string, onChange func(poller.State)) *poller.Poller

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type subscription struct {
	poller  *poller.Poller
	clients map[uuid.UUID]*client
}

// Hub shares one poller per activity between all websocket subscribers.
// The first subscriber starts the poller and the last one to leave stops it.
type Hub struct {
	mu        sync.Mutex
	subs      map[string]*subscription
	newPoller PollerFactory
	now       func() time.Time
	logger    *slog.Logger
}

// NewHub creates a hub that builds pollers with newPoller.
func NewHub(newPoller PollerFactory, now func() time.Time, logger *slog.Logger) *Hub {
	return &Hub{
		subs:      make(map[string]*subscription),
		newPoller: newPoller,
		now:       now,
		logger:    logger,
	}
}

// register adds conn to the subscribers of activityID and returns its id.
func (h *Hub) register(activityID string, conn *websocket.Conn) (uuid.UUID, *client, *poller.Poller) {
	id := uuid.New()
	c := &client{conn: conn}

	h.mu.Lock()
	sub, ok := h.subs[activityID]
	if !ok {
		sub = &subscription{clients: make(map[uuid.UUID]*client)}
		sub.poller = h.newPoller(activityID, func(st poller.State) { h.broadcast(activityID, st) })
		h.subs[activityID] = sub
	}
	sub.clients[id] = c
	total := len(sub.clients)
	h.mu.Unlock()

	if !ok {
		sub.poller.Start(context.Background())
	}

	h.logger.Info("dashboard subscriber connected", "activity", activityID, "subscriber", id, "total", total)
	return id, c, sub.poller
}

// unregister removes a subscriber and stops the poller when none remain.
func (h *Hub) unregister(activityID string, id uuid.UUID) {
	h.mu.Lock()
	sub, ok := h.subs[activityID]
	if !ok {
		h.mu.Unlock()
		return
	}
	c := sub.clients[id]
	delete(sub.clients, id)
	last := len(sub.clients) == 0
	if last {
		delete(h.subs, activityID)
	}
	h.mu.Unlock()

	if c != nil {
		_ = c.conn.Close()
	}
	if last {
		sub.poller.Stop()
	}

	h.logger.Info("dashboard subscriber disconnected", "activity", activityID, "subscriber", id)
}

// Poller returns the running poller of an activity, if any.
func (h *Hub) Poller(activityID string) (*poller.Poller, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub, ok := h.subs[activityID]
	if !ok {
		return nil, false
	}
	return sub.poller, true
}

// Subscribers returns the number of connections watching activityID.
func (h *Hub) Subscribers(activityID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[activityID]; ok {
		return len(sub.clients)
	}
	return 0
}

func (h *Hub) broadcast(activityID string, st poller.State) {
	h.mu.Lock()
	sub, ok := h.subs[activityID]
	if !ok {
		h.mu.Unlock()
		return
	}
	clients := make([]*client, 0, len(sub.clients))
	for _, c := range sub.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	data, err := json.Marshal(st.Snapshot(h.now()))
	if err != nil {
		h.logger.Error("snapshot encode failed", "activity", activityID, "error", err)
		return
	}

	for _, c := range clients {
		if err := c.send(data); err != nil {
			// the reader goroutine notices the closed conn and unregisters
			h.logger.Debug("dashboard push failed", "activity", activityID, "error", err)
			_ = c.conn.Close()
		}
	}
}

// Close stops every poller and disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]*subscription)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.poller.Stop()
		for _, c := range sub.clients {
			c.mu.Lock()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			c.mu.Unlock()
			_ = c.conn.Close()
		}
	}
}

func newUpgrader(allowedOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
		},
	}
}
