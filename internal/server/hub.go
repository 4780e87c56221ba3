package server

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/conneroisu/sizekit/internal/logging"
	"github.com/conneroisu/sizekit/internal/responsive"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound messages buffered per client before it is dropped.
	sendBuffer = 64
)

// Message types exchanged over the live connection.
const (
	MessageCSS        = "css"
	MessageViewport   = "viewport"
	MessageContainer  = "container"
	MessageBreakpoint = "breakpoint"
	MessageError      = "error"
)

// Message is the JSON frame exchanged with browsers. Clients send viewport
// and container reports; the server sends css and breakpoint updates.
type Message struct {
	Type      string    `json:"type"`
	CSS       *string   `json:"css,omitempty"`
	ID        string    `json:"id,omitempty"`
	Width     float64   `json:"width,omitempty"`
	Name      string    `json:"name,omitempty"`
	Active    []string  `json:"active,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Client is one live browser connection.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan Message
	hub  *Hub

	// resources is released when the client disconnects.
	resources responsive.Group

	limiter *slidingWindowLimiter

	mu           sync.Mutex
	viewport     *responsive.Viewport
	viewportSeen bool
	containers   map[string]*responsive.Box
}

// ID returns the client's connection id.
func (c *Client) ID() string { return c.id }

// Hub tracks live clients and pushes stylesheets to them. It implements
// style.Sink so the size manager writes straight to every browser.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	css     string
	hasCSS  bool
	logger  logging.Logger

	handle func(ctx context.Context, c *Client, msg Message)
}

// NewHub creates an empty hub.
func NewHub(logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger.WithComponent("hub"),
	}
}

// SetText implements style.Sink by broadcasting css to every client.
func (h *Hub) SetText(ctx context.Context, css string) error {
	h.mu.Lock()
	h.css = css
	h.hasCSS = true
	h.mu.Unlock()

	h.Broadcast(ctx, cssMessage(css))

	return nil
}

// Remove implements style.Sink by telling clients to clear the stylesheet.
func (h *Hub) Remove(ctx context.Context) error {
	h.mu.Lock()
	h.css = ""
	h.hasCSS = false
	h.mu.Unlock()

	h.Broadcast(ctx, cssMessage(""))

	return nil
}

// CSS returns the last stylesheet written to the hub.
func (h *Hub) CSS() (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.css, h.hasCSS
}

// Broadcast queues msg for every client. Clients whose buffers are full
// are disconnected.
func (h *Hub) Broadcast(ctx context.Context, msg Message) {
	h.mu.RLock()
	var slow []*Client
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn(ctx, nil, "client send buffer full, disconnecting", "client", c.id)
		h.unregister(c, websocket.StatusPolicyViolation, "too slow")
	}
}

// Len reports connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.unregister(c, websocket.StatusGoingAway, "server shutting down")
	}
}

// serve runs a connection until it closes. The current stylesheet is sent
// first so a new page is styled without waiting for a change.
func (h *Hub) serve(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)

	c := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Message, sendBuffer),
		hub:  h,

		limiter:    newSlidingWindowLimiter(clientMessageLimit, clientMessageWindow),
		containers: make(map[string]*responsive.Box),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	count := len(h.clients)
	if h.hasCSS {
		c.send <- cssMessage(h.css)
	}
	h.mu.Unlock()

	h.logger.Info(ctx, "client connected", "client", c.id, "total", count)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)

	h.unregister(c, websocket.StatusNormalClosure, "")
}

func (h *Hub) unregister(c *Client, code websocket.StatusCode, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	if ok {
		delete(h.clients, c.id)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}

	c.resources.Release()
	c.conn.Close(code, reason)
	h.logger.Info(context.Background(), "client disconnected", "client", c.id, "total", count)
}

// Send queues a message for this client without blocking.
func (c *Client) Send(msg Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) readPump(ctx context.Context) {
	for {
		var msg Message
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				c.hub.logger.Debug(ctx, "websocket read ended", "client", c.id, "error", err.Error())
			}
			return
		}

		if !c.limiter.Allow() {
			if c.limiter.Violations() >= maxClientViolations {
				c.hub.logger.Warn(ctx, nil, "client exceeded message rate, disconnecting", "client", c.id)
				return
			}
			c.hub.logger.Debug(ctx, "dropping rate limited message", "client", c.id, "type", msg.Type)
			continue
		}

		if c.hub.handle != nil {
			c.hub.handle(ctx, c, msg)
		}
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.send:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := wsjson.Write(writeCtx, c.conn, msg)
			cancel()
			if err != nil {
				c.hub.logger.Debug(ctx, "websocket write failed", "client", c.id, "error", err.Error())
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func cssMessage(css string) Message {
	return Message{Type: MessageCSS, CSS: &css}
}
