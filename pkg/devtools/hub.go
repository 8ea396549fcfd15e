package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// EventType is the type of a message sent to WebSocket clients.
type EventType string

const (
	EventSnapshot EventType = "snapshot"
	EventChange   EventType = "change"
	EventRemoved  EventType = "removed"
)

// Event is sent to inspector clients via WebSocket.
type Event struct {
	Type    EventType       `json:"type"`
	Client  string          `json:"client,omitempty"`
	State   string          `json:"state,omitempty"`
	Version uint64          `json:"version,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
	States  []StateInfo     `json:"states,omitempty"`
}

const (
	clientQueue  = 64
	writeTimeout = 5 * time.Second
)

type client struct {
	id   string
	conn *websocket.Conn

	// mu guards send against close and holds events broadcast before the
	// hello is queued.
	mu      sync.Mutex
	send    chan []byte
	greeted bool
	closed  bool
	backlog [][]byte
}

// enqueue queues data for the client. It reports false when the queue is
// full.
func (c *client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	if !c.greeted {
		if len(c.backlog) >= clientQueue {
			return false
		}
		c.backlog = append(c.backlog, data)
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// greet queues hello ahead of everything broadcast since registration.
func (c *client) greet(hello []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.greeted = true
	if c.closed {
		return true
	}
	if hello != nil {
		c.send <- hello
	}
	for _, data := range c.backlog {
		select {
		case c.send <- data:
		default:
			return false
		}
	}
	c.backlog = nil
	return true
}

func (c *client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// hub manages WebSocket connections of inspector clients.
type hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // the inspector is a development tool
			},
		},
	}
}

// serve upgrades the request and keeps the connection until the client
// goes away. hello is the first message the client receives. The client
// is registered before hello runs, so broadcasts issued meanwhile follow
// it; their versions may already be covered by the hello.
func (h *hub) serve(w http.ResponseWriter, r *http.Request, hello func(id string) Event) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, clientQueue),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("inspector client connected", "client", c.id)

	data, err := json.Marshal(hello(c.id))
	if err != nil {
		h.logger.Error("encoding hello failed", "client", c.id, "error", err)
		data = nil
	}
	if !c.greet(data) {
		h.logger.Warn("inspector client too slow, disconnecting", "client", c.id)
		conn.Close()
	}

	go c.writeLoop()

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
	conn.Close()
	h.logger.Debug("inspector client disconnected", "client", c.id)
}

func (c *client) writeLoop() {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.conn.Close()
			return
		}
	}
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.shutdown()
	}
}

// broadcast queues ev for every client. Clients whose queue is full are
// disconnected.
func (h *hub) broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.enqueue(data) {
			h.logger.Warn("inspector client too slow, disconnecting", "client", c.id)
			c.conn.Close()
		}
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// close closes all client connections.
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
		delete(h.clients, c)
		c.shutdown()
	}
}
