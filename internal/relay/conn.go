package relay

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound frame buffer per connection.
	sendBufferSize = 256
)

// ErrSessionClosed is returned by Push once the transport is gone.
var ErrSessionClosed = errors.New("session closed")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // non-browser clients
		}
		if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
			return true
		}
		for _, allowed := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
			if origin == strings.TrimSpace(allowed) {
				return true
			}
		}
		return false
	},
}

// Conn is one live websocket transport session. It starts unauthenticated;
// identity is established in-band by the first valid auth frame, handled by
// the hub.
type Conn struct {
	id     string
	hub    *Hub
	ws     *websocket.Conn
	send   chan []byte
	quit   chan struct{}
	closed atomic.Bool
	logger *slog.Logger
}

func newConn(hub *Hub, ws *websocket.Conn, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{
		id:     uuid.New().String(),
		hub:    hub,
		ws:     ws,
		send:   make(chan []byte, sendBufferSize),
		quit:   make(chan struct{}),
		logger: logger,
	}
}

func (c *Conn) ID() string {
	return c.id
}

// Push queues one frame for the write pump. Frames are written in the order
// Push is called. A full buffer means the peer stopped reading; the
// connection is closed rather than letting it stall fan-out.
func (c *Conn) Push(data []byte) error {
	if c.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case c.send <- data:
		return nil
	case <-c.quit:
		return ErrSessionClosed
	default:
		c.logger.Warn("send buffer full, closing session", "session", c.id)
		c.close()
		return ErrSessionClosed
	}
}

func (c *Conn) close() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.quit)
	}
}

// readPump forwards inbound frames to the hub until the transport dies, then
// announces the disconnect.
func (c *Conn) readPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.close()
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", "session", c.id, "error", err)
			}
			return
		}
		c.hub.HandleFrame(c, data)
	}
}

// writePump drains the send buffer to the socket and keeps the connection
// alive with pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.quit:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// ServeWS upgrades an HTTP request and hands the connection to the hub.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := newConn(hub, ws, hub.logger)
	hub.Connect(c)
	hub.logger.Info("websocket connection established", "session", c.id)

	go c.writePump()
	go c.readPump()
}
