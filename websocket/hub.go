package websocket

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busticket/busticket_backend/models"
)

// Message types sent to clients.
const (
	MessageTypeConnected    = "connected"
	MessageTypeNotification = "notification"
)

const sendBuffer = 16

// Message is what goes over the socket. Notifications only carry a hint;
// clients fetch the record itself through the REST API.
type Message struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	UserID  string      `json:"userID,omitempty"`
}

// NotificationHint identifies a new notification.
type NotificationHint struct {
	ID       string                  `json:"id"`
	Type     models.NotificationType `json:"type"`
	Title    string                  `json:"title"`
	Priority models.Priority         `json:"priority"`
}

// Client is one connection. A user may hold several.
type Client struct {
	UserID primitive.ObjectID
	Conn   *websocket.Conn
	send   chan Message
}

// Hub tracks open connections per user.
type Hub struct {
	clients map[primitive.ObjectID]map[*Client]struct{}
	mu      sync.RWMutex
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[primitive.ObjectID]map[*Client]struct{}),
		logger:  logger.With().Str("component", "websocket").Logger(),
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[client.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[client.UserID] = set
	}
	set[client] = struct{}{}
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := set[client]; ok {
		delete(set, client)
		close(client.send)
	}
	if len(set) == 0 {
		delete(h.clients, client.UserID)
	}
}

// Connections returns how many sockets userID has open.
func (h *Hub) Connections(userID primitive.ObjectID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// NotifyUser hints every open connection of userID that n exists. Slow
// clients drop hints rather than block the caller.
func (h *Hub) NotifyUser(userID primitive.ObjectID, n *models.Notification) {
	msg := Message{
		Type:    MessageTypeNotification,
		Message: n.Title,
		UserID:  userID.Hex(),
		Data: NotificationHint{
			ID:       n.ID.Hex(),
			Type:     n.Type,
			Title:    n.Title,
			Priority: n.Priority,
		},
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- msg:
		default:
			h.logger.Debug().Str("user", userID.Hex()).Msg("client send buffer full, hint dropped")
		}
	}
}
