package websocket

import (
	"encoding/json"
	"sync"

	"forestval/internal/logger"
)

// Message is the envelope for every frame exchanged with a live session.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
	Kind    string          `json:"kind,omitempty"`
}

// Message types
const (
	TypeValuate   = "valuate"
	TypeValuation = "valuation"
	TypeError     = "error"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	log        *logger.Logger
}

// NewHub initializes a new WS Hub instance
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		log:        log,
	}
}

// Run starts the dispatch loop; it returns when stop is closed.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Info("websocket client connected", "subject", client.subject)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.Info("websocket client disconnected", "subject", client.subject)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client: drop this message for it, the socket stays open.
					h.log.Warn("websocket send buffer full, dropping broadcast", "subject", client.subject)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount reports the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish broadcasts an event to every client. It never blocks the caller;
// events are dropped when the hub is saturated.
func (h *Hub) Publish(event string, payload interface{}) {
	data, err := encode(event, payload)
	if err != nil {
		h.log.Error("failed to encode websocket event", "event", event, "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.log.Warn("websocket hub saturated, dropping event", "event", event)
	}
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: msgType, Payload: raw})
}
