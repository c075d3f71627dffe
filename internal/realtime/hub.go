// Package realtime pushes notification events to connected websocket
// clients, keyed by user.
package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*client]struct{}
	log     *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{clients: make(map[uuid.UUID]map[*client]struct{}), log: log}
}

// ServeWS upgrades the request and holds the connection until the peer
// goes away. Inbound frames are read and discarded.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", "error", err)
		return
	}
	c := &client{conn: conn}
	h.add(userID, c)
	defer func() {
		h.remove(userID, c)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) add(userID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) remove(userID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[userID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

// Connected reports how many sockets a user currently holds.
func (h *Hub) Connected(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish sends ev to every socket the user holds. Users without a socket
// are ignored.
func (h *Hub) Publish(userID uuid.UUID, ev Event) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Warn("encode realtime event", "error", err)
		return
	}
	for _, c := range targets {
		if err := c.write(data); err != nil {
			h.log.Debug("realtime write failed", "user_id", userID, "error", err)
		}
	}
}
