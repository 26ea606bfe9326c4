package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"happyshaa/pkg/logger"
)

// Server to client message types.
const (
	TypeWelcome         = "welcome"
	TypeError           = "error"
	TypeAlertState      = "alert_state"
	TypeAlertDispatched = "alert_dispatched"
)

// Client to server message types.
const (
	TypeFrame       = "frame"
	TypeLocation    = "location"
	TypeCancelAlert = "cancel_alert"
)

type Message struct {
	Type      string      `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Inbound is a message received from a client. Data is decoded by the
// MessageHandler according to Type.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type MessageHandler interface {
	HandleMessage(ctx context.Context, userID string, msg Inbound) error
}

// Hub tracks connected clients grouped by user. A user may hold several
// connections, for example a phone and a watch.
type Hub struct {
	users      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	log        *logger.Logger
	now        func() time.Time
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		users:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log.WithField("component", "websocket_hub"),
		now:        time.Now,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	room := h.users[client.UserID]
	if room == nil {
		room = make(map[*Client]bool)
		h.users[client.UserID] = room
	}
	room[client] = true
	h.mutex.Unlock()

	h.log.WithUserID(client.UserID).Debug("Client registered")

	h.sendToClient(client, Message{
		Type:      TypeWelcome,
		UserID:    client.UserID,
		Timestamp: h.now().Unix(),
		Data:      map[string]interface{}{"message": "Connected successfully"},
	})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeLocked(client)
}

// removeLocked drops a client and closes its send queue exactly once.
func (h *Hub) removeLocked(client *Client) {
	room, ok := h.users[client.UserID]
	if !ok || !room[client] {
		return
	}
	delete(room, client)
	close(client.send)
	if len(room) == 0 {
		delete(h.users, client.UserID)
	}
	h.log.WithUserID(client.UserID).Debug("Client unregistered")
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for _, room := range h.users {
		for client := range room {
			h.removeLocked(client)
		}
	}
}

// SendToUser delivers a message to every connection of userID. Clients
// whose queue is full are disconnected.
func (h *Hub) SendToUser(userID, msgType string, data interface{}) {
	msg := Message{
		Type:      msgType,
		UserID:    userID,
		Timestamp: h.now().Unix(),
		Data:      data,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).Error("Failed to marshal websocket message")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.users[userID] {
		select {
		case client.send <- payload:
		default:
			h.log.WithUserID(userID).Warn("Websocket client too slow, disconnecting")
			h.removeLocked(client)
		}
	}
}

func (h *Hub) sendToClient(client *Client, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if !h.users[client.UserID][client] {
		return
	}
	select {
	case client.send <- payload:
	default:
		h.removeLocked(client)
	}
}

// Connections reports how many live connections userID holds.
func (h *Hub) Connections(userID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.users[userID])
}
