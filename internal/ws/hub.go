package ws

import (
	"encoding/json"
	"sync"
	"time"

	"taskboard/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
)

var connectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "ws_activity_clients",
	Help: "Admin dashboards connected to the activity feed",
})

func init() {
	prometheus.MustRegister(connectedClients)
}

// Event is pushed to every connected admin dashboard when data changes.
type Event struct {
	Type    string    `json:"type"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Hub fans activity events out to connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	connectedClients.Set(float64(n))
	logger.Debug("ws: client registered", "user_id", c.UserID, "clients", n)
}

// Unregister is safe to call more than once for the same client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	connectedClients.Set(float64(n))
	logger.Debug("ws: client unregistered", "user_id", c.UserID, "clients", n)
}

// Notify implements service.Notifier. It never blocks: a client whose buffer is full is dropped.
func (h *Hub) Notify(kind, message string) {
	msg, err := json.Marshal(Event{Type: kind, Message: message, At: time.Now().UTC()})
	if err != nil {
		logger.Error("ws: encode event", "error", err)
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.Send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logger.Warn("ws: dropping slow client", "user_id", c.UserID)
		h.Unregister(c)
	}
}

// sendTo queues msg for one client if it is still registered.
func (h *Hub) sendTo(c *Client, msg []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client; used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.Send)
	}
	h.mu.Unlock()
	connectedClients.Set(0)
}
