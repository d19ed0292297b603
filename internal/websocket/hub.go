package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/models"

	"go.uber.org/zap"
)

// Event types pushed to dashboard clients
const (
	EventNotification = "notificacao"
	EventBinReading   = "leitura_lixeira"
)

// Event is the envelope of every message the hub sends.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains active WebSocket connections and broadcasts messages
type Hub struct {
	// Registered clients by connection id; one user may hold several tabs
	clients map[string]*Client

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

// Message is a payload for every client, or for one role when Role is set.
type Message struct {
	Role string
	Data []byte
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled. It must
// be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("✅ WebSocket client connected",
				zap.String("user_id", client.UserID),
				zap.String("role", client.UserRole),
				zap.Int("clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
				logger.Info("🔴 WebSocket client disconnected",
					zap.String("user_id", client.UserID),
					zap.Int("clients", len(h.clients)))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for id, client := range h.clients {
				if message.Role != "" && client.UserRole != message.Role {
					continue
				}
				select {
				case client.send <- message.Data:
				default:
					// Client buffer full, disconnect
					close(client.send)
					delete(h.clients, id)
					logger.Warn("⚠️ Client buffer full, disconnecting", zap.String("user_id", client.UserID))
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client; after the hub has stopped it is a no-op.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	h.enqueue("", eventType, data)
}

// BroadcastToRole sends an event to clients whose token carries role.
func (h *Hub) BroadcastToRole(role, eventType string, data interface{}) {
	h.enqueue(role, eventType, data)
}

func (h *Hub) enqueue(role, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		logger.Error("❌ Failed to marshal broadcast message", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- &Message{Role: role, Data: payload}:
	default:
		logger.Warn("⚠️ Broadcast queue full, dropping event", zap.String("type", eventType))
	}
}

// NotifyAlert pushes a freshly created notification to every dashboard.
func (h *Hub) NotifyAlert(_ context.Context, n *models.Notification) error {
	h.Broadcast(EventNotification, n.ToNotificationResponse())
	return nil
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsUserConnected checks if a user has at least one open connection
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.UserID == userID {
			return true
		}
	}
	return false
}
