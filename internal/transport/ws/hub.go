package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgResponseSubmitted MessageType = "response_submitted"
	MsgSpecPublished     MessageType = "spec_published"
	MsgAdminsOnline      MessageType = "admins_online"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans admin feed events out to every connected admin
type Hub struct {
	admins map[*Connection]struct{}
	mu     sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *Message

	logger zerolog.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	TokenID string
	Send    chan []byte
	Hub     *Hub
}

// NewHub creates a new WebSocket hub
func NewHub(logger zerolog.Logger) *Hub {
	h := &Hub{
		admins:     make(map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *Message, 256),
		logger:     logger.With().Str("component", "ws_hub").Logger(),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.admins[conn] = struct{}{}
			n := len(h.admins)
			h.mu.Unlock()
			h.logger.Info().Str("token_id", conn.TokenID).Int("admins", n).Msg("admin connected")
			h.send(h.envelope(MsgAdminsOnline, map[string]int{"count": n}))

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.admins[conn]; ok {
				delete(h.admins, conn)
				close(conn.Send)
			}
			n := len(h.admins)
			h.mu.Unlock()
			h.logger.Info().Str("token_id", conn.TokenID).Int("admins", n).Msg("admin disconnected")

		case msg := <-h.broadcast:
			h.send(msg)
		}
	}
}

func (h *Hub) send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", string(msg.Type)).Msg("encode message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.admins {
		select {
		case conn.Send <- data:
		default:
			// Drop message if buffer full
		}
	}
}

func (h *Hub) envelope(msgType MessageType, payload interface{}) *Message {
	data, _ := json.Marshal(payload)
	return &Message{Type: msgType, Payload: data}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// AdminCount returns the number of connected admins
func (h *Hub) AdminCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.admins)
}

// BroadcastToAdmins sends an event to every admin (implements service.Broadcaster)
func (h *Hub) BroadcastToAdmins(msgType string, payload interface{}) {
	h.broadcast <- h.envelope(MessageType(msgType), payload)
}
