// Package relayclient is a Go client for the chatmod websocket relay. It
// authenticates on connect, redials on a fixed interval after any transport
// loss, and dispatches server frames to typed subscribers.
package relayclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// FrameType identifies a wire frame.
type FrameType string

const (
	FrameAuth           FrameType = "auth"
	FramePrivateMessage FrameType = "private_message"
	FrameChatMessage    FrameType = "chat_message"
	FrameAuthSuccess    FrameType = "auth_success"
	FrameError          FrameType = "error"
)

// ServerFrame is one server-to-client frame. Message holds the persisted
// message object for delivery frames and a JSON string for error frames.
type ServerFrame struct {
	Type    FrameType       `json:"type"`
	Message json.RawMessage `json:"message,omitempty"`
}

// ErrorText extracts the message of an error frame.
func (f *ServerFrame) ErrorText() string {
	var s string
	if err := json.Unmarshal(f.Message, &s); err != nil {
		return ""
	}
	return s
}

type authFrame struct {
	Type   FrameType `json:"type"`
	UserID uint      `json:"userId"`
}

// PrivateMessage is an outbound direct-message frame.
type PrivateMessage struct {
	Type       FrameType `json:"type"`
	ReceiverID uint      `json:"receiverId"`
	Content    string    `json:"content"`
	MediaType  string    `json:"mediaType"`
	MediaURL   string    `json:"mediaUrl"`
}

// ChatMessage is an outbound room-message frame.
type ChatMessage struct {
	Type      FrameType `json:"type"`
	RoomID    uint      `json:"roomId"`
	Content   string    `json:"content"`
	MediaType string    `json:"mediaType"`
	MediaURL  string    `json:"mediaUrl"`
}

// defaultReconnectDelay is the fixed pause between redial attempts. Retries
// continue until Close is called.
const defaultReconnectDelay = 3 * time.Second

// ErrClientClosed is returned by Start after Close.
var ErrClientClosed = errors.New("relayclient: client closed")

// Handler receives one decoded server frame. Handlers run on the client's
// read goroutine; slow handlers delay subsequent frames.
type Handler func(frame *ServerFrame)

// Client maintains one authenticated relay connection on the caller's
// behalf. Zero value is not usable; construct with New.
type Client struct {
	url    string
	userID uint
	delay  time.Duration
	dialer *websocket.Dialer
	logger *slog.Logger

	mu            sync.Mutex
	conn          *websocket.Conn
	authenticated bool
	closed        bool
	started       bool
	reconnect     *time.Timer

	// writeMu serializes writes; gorilla allows one concurrent writer.
	writeMu sync.Mutex

	subsMu    sync.Mutex
	subs      map[FrameType]map[uint64]Handler
	nextToken uint64
}

// Option customizes a Client.
type Option func(*Client)

// WithReconnectDelay overrides the pause between redial attempts.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithDialer sets the websocket dialer, e.g. to adjust timeouts.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// New creates a client for the relay at url (ws:// or wss://) that will
// authenticate as userID. The connection is not opened until Start.
func New(url string, userID uint, opts ...Option) *Client {
	c := &Client{
		url:    url,
		userID: userID,
		delay:  defaultReconnectDelay,
		dialer: websocket.DefaultDialer,
		logger: slog.Default(),
		subs:   make(map[FrameType]map[uint64]Handler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start opens the connection and begins the read loop. It returns after the
// first dial attempt; if that attempt fails the client keeps retrying in the
// background and Start still returns nil. Subscriptions survive reconnects.
func (c *Client) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	if err := c.dial(); err != nil {
		c.logger.Warn("initial dial failed, retrying in background", "url", c.url, "error", err)
		c.scheduleReconnect()
	}
	return nil
}

// Connected reports whether the client currently holds an authenticated
// connection.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.authenticated
}

// OnMessage registers a handler for one server frame type and returns an
// unsubscribe function. Unsubscribing removes exactly this registration.
func (c *Client) OnMessage(t FrameType, h Handler) func() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	c.nextToken++
	token := c.nextToken
	if c.subs[t] == nil {
		c.subs[t] = make(map[uint64]Handler)
	}
	c.subs[t][token] = h

	return func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		delete(c.subs[t], token)
	}
}

// Send marshals v and writes it to the relay. It reports false, without
// buffering, when no authenticated connection is up; the caller falls back
// to the HTTP send path.
func (c *Client) Send(v any) bool {
	c.mu.Lock()
	conn := c.conn
	ok := conn != nil && c.authenticated
	c.mu.Unlock()
	if !ok {
		return false
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(v); err != nil {
		c.logger.Warn("relay write failed", "error", err)
		return false
	}
	return true
}

// SendPrivateMessage sends one direct message frame.
func (c *Client) SendPrivateMessage(receiverID uint, content, mediaType, mediaURL string) bool {
	return c.Send(PrivateMessage{
		Type:       FramePrivateMessage,
		ReceiverID: receiverID,
		Content:    content,
		MediaType:  mediaType,
		MediaURL:   mediaURL,
	})
}

// SendRoomMessage sends one room message frame.
func (c *Client) SendRoomMessage(roomID uint, content, mediaType, mediaURL string) bool {
	return c.Send(ChatMessage{
		Type:      FrameChatMessage,
		RoomID:    roomID,
		Content:   content,
		MediaType: mediaType,
		MediaURL:  mediaURL,
	})
}

// Close tears down the connection and stops reconnecting. Safe to call more
// than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.authenticated = false
	return nil
}

func (c *Client) dial() error {
	conn, _, err := c.dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrClientClosed
	}
	c.conn = conn
	c.authenticated = false
	c.mu.Unlock()

	c.writeMu.Lock()
	err = conn.WriteJSON(authFrame{Type: FrameAuth, UserID: c.userID})
	c.writeMu.Unlock()
	if err != nil {
		conn.Close()
		return fmt.Errorf("send auth: %w", err)
	}

	go c.readLoop(conn)
	return nil
}

// readLoop consumes frames until the transport dies, then hands off to the
// reconnect path. The first auth_success flips the client to connected.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(conn, err)
			return
		}

		var frame ServerFrame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Type == "" {
			c.logger.Warn("dropping undecodable server frame", "error", err)
			continue
		}

		if frame.Type == FrameAuthSuccess {
			c.mu.Lock()
			if c.conn == conn {
				c.authenticated = true
			}
			c.mu.Unlock()
		}

		c.dispatch(&frame)
	}
}

func (c *Client) dispatch(frame *ServerFrame) {
	c.subsMu.Lock()
	handlers := make([]Handler, 0, len(c.subs[frame.Type]))
	for _, h := range c.subs[frame.Type] {
		handlers = append(handlers, h)
	}
	c.subsMu.Unlock()

	for _, h := range handlers {
		c.invoke(h, frame)
	}
}

// invoke isolates handler panics so one bad subscriber cannot kill the read
// loop.
func (c *Client) invoke(h Handler, frame *ServerFrame) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("subscriber panicked", "frameType", frame.Type, "panic", r)
		}
	}()
	h(frame)
}

func (c *Client) handleDisconnect(conn *websocket.Conn, err error) {
	conn.Close()

	c.mu.Lock()
	if c.conn != conn {
		// A newer connection already replaced this one.
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.authenticated = false
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return
	}
	c.logger.Warn("relay connection lost, reconnecting", "delay", c.delay, "error", err)
	c.scheduleReconnect()
}

func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.reconnect = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		if err := c.dial(); err != nil {
			c.logger.Warn("redial failed", "url", c.url, "error", err)
			c.scheduleReconnect()
		}
	})
}
