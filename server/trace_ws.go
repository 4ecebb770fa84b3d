package server

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// traceBacklog is how many lines a client may fall behind before it is dropped.
const traceBacklog = 1024

type traceClient struct {
	conn   *websocket.Conn
	send   chan string
	logger *log.Logger
}

// TraceHub streams trace lines to WebSocket clients as text messages.
type TraceHub struct {
	mu       sync.Mutex
	clients  map[*traceClient]struct{}
	upgrader websocket.Upgrader
}

// NewTraceHub creates a hub with no clients.
func NewTraceHub() *TraceHub {
	return &TraceHub{
		clients: make(map[*traceClient]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the client subscribed until it
// disconnects.
func (h *TraceHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("websocket upgrade error:", err)
		return
	}

	c := &traceClient{
		conn:   conn,
		send:   make(chan string, traceBacklog),
		logger: log.New(log.Writer(), fmt.Sprintf("[trace/%s] ", conn.RemoteAddr()), log.Flags()),
	}
	h.add(c)
	c.logger.Printf("Client subscribed")

	go c.writeLoop()

	// Clients never send anything we care about; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	c.logger.Printf("Client disconnected")
}

// Publish queues line for every client. Clients whose backlog is full are
// disconnected.
func (h *TraceHub) Publish(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- line:
		default:
			c.logger.Printf("Dropping slow client")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Clients returns the number of subscribed clients.
func (h *TraceHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients.
func (h *TraceHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *TraceHub) add(c *traceClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *TraceHub) remove(c *traceClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (c *traceClient) writeLoop() {
	defer c.conn.Close()
	for line := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			c.logger.Printf("Write failed: %v", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
