package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/logger"
)

// EventPublisher is what services use to push events. Tests substitute a recorder.
type EventPublisher interface {
	BroadcastToAll(event Event)
	BroadcastToUser(userID string, event Event)
	OnlineUserIDs() []string
}

// Hub tracks live connections by user. A user may hold several connections
// (one per tab or device).
type Hub struct {
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once

	seq atomic.Int64
	log *slog.Logger
}

// NewHub creates a hub. Call Run on its own goroutine.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        logger.For(log, "ws"),
	}
}

// Run processes registrations until Shutdown. Start it with `go hub.Run()`.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.log.Info("client connected", "user_id", client.userID, "session_id", client.sessionID,
		"connections", len(h.clients[client.userID]))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	client.closed = true
	close(client.send)

	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}
	h.log.Info("client disconnected", "user_id", client.userID, "remaining", len(clients))
}

// enqueue must be called with h.mu held for reading.
func (h *Hub) enqueue(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		// Slow consumer; drop it.
		go h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) marshal(event Event) ([]byte, bool) {
	event.Seq = h.seq.Add(1)
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal event", "op", event.Op, "error", err)
		return nil, false
	}
	return data, true
}

// BroadcastToAll sends event to every connection.
func (h *Hub) BroadcastToAll(event Event) {
	data, ok := h.marshal(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.enqueue(client, data)
		}
	}
}

// BroadcastToUser sends event to every connection held by userID.
func (h *Hub) BroadcastToUser(userID string, event Event) {
	data, ok := h.marshal(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		h.enqueue(client, data)
	}
}

func (h *Hub) OnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}

// Shutdown closes every connection and stops Run.
func (h *Hub) Shutdown() {
	h.closeOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()
		for _, clients := range h.clients {
			for client := range clients {
				client.closed = true
				close(client.send)
			}
		}
		h.clients = make(map[string]map[*Client]bool)
		h.log.Info("hub shut down")
	})
}
