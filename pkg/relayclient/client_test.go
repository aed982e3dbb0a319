package relayclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// relayStub is a scripted relay endpoint: it answers auth frames with
// auth_success, records everything else, and can kill its connections to
// exercise the reconnect path.
type relayStub struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	conns    []*websocket.Conn
	authed   []uint
	received [][]byte
}

func newRelayStub(t *testing.T) *relayStub {
	t.Helper()
	s := &relayStub{t: t}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, ws)
		s.mu.Unlock()
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			var head struct {
				Type   FrameType `json:"type"`
				UserID uint      `json:"userId"`
			}
			if err := json.Unmarshal(data, &head); err != nil {
				continue
			}
			if head.Type == FrameAuth {
				s.mu.Lock()
				s.authed = append(s.authed, head.UserID)
				s.mu.Unlock()
				ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"auth_success"}`))
				continue
			}
			s.mu.Lock()
			s.received = append(s.received, data)
			s.mu.Unlock()
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *relayStub) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *relayStub) authCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.authed)
}

func (s *relayStub) receivedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

// dropConnections closes every live connection server-side.
func (s *relayStub) dropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ws := range s.conns {
		ws.Close()
	}
	s.conns = nil
}

// push sends a server frame to every live connection.
func (s *relayStub) push(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ws := range s.conns {
		ws.WriteMessage(websocket.TextMessage, data)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

var deliveryFrame = []byte(`{"type":"private_message","message":{"id":1,"senderId":7,"receiverId":42,"content":"hi","mediaType":"text","mediaUrl":"","read":false,"createdAt":"2026-01-02T15:04:05Z"}}`)

func TestClientAuthenticatesOnStart(t *testing.T) {
	stub := newRelayStub(t)
	c := New(stub.url(), 42, WithReconnectDelay(50*time.Millisecond))
	defer c.Close()

	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, c.Connected)
	if got := stub.authCount(); got != 1 {
		t.Errorf("expected 1 auth frame, got %d", got)
	}
}

func TestClientSendReportsFalseWhenDown(t *testing.T) {
	stub := newRelayStub(t)
	c := New(stub.url(), 42, WithReconnectDelay(time.Hour))
	defer c.Close()

	// Not started yet: nothing is buffered, the caller just learns it failed.
	if c.SendPrivateMessage(99, "hi", "text", "") {
		t.Fatal("expected Send to report false before Start")
	}

	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, c.Connected)
	if !c.SendPrivateMessage(99, "hi", "text", "") {
		t.Fatal("expected Send to succeed while connected")
	}
	waitFor(t, func() bool { return stub.receivedCount() == 1 })

	stub.dropConnections()
	waitFor(t, func() bool { return !c.Connected() })
	if c.SendPrivateMessage(99, "hi again", "text", "") {
		t.Error("expected Send to report false after disconnect")
	}
}

func TestClientReconnectsAndReauthenticates(t *testing.T) {
	stub := newRelayStub(t)
	c := New(stub.url(), 42, WithReconnectDelay(50*time.Millisecond))
	defer c.Close()

	var mu sync.Mutex
	var delivered []*ServerFrame
	c.OnMessage(FramePrivateMessage, func(f *ServerFrame) {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, f)
	})

	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, c.Connected)

	stub.dropConnections()
	waitFor(t, func() bool { return stub.authCount() == 2 })
	waitFor(t, c.Connected)

	// Subscriptions registered before the drop still fire on the new
	// connection.
	stub.push(deliveryFrame)
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) == 1
	})
}

func TestClientUnsubscribeRemovesExactRegistration(t *testing.T) {
	stub := newRelayStub(t)
	c := New(stub.url(), 42, WithReconnectDelay(50*time.Millisecond))
	defer c.Close()

	var mu sync.Mutex
	counts := map[string]int{}
	record := func(name string) Handler {
		return func(*ServerFrame) {
			mu.Lock()
			defer mu.Unlock()
			counts[name]++
		}
	}
	unsubA := c.OnMessage(FramePrivateMessage, record("a"))
	c.OnMessage(FramePrivateMessage, record("b"))
	c.OnMessage(FrameChatMessage, record("room"))

	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, c.Connected)

	unsubA()
	stub.push(deliveryFrame)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return counts["b"] == 1
	})
	mu.Lock()
	defer mu.Unlock()
	if counts["a"] != 0 {
		t.Errorf("unsubscribed handler fired %d times", counts["a"])
	}
	if counts["room"] != 0 {
		t.Errorf("handler for other frame type fired %d times", counts["room"])
	}
}

func TestClientHandlerPanicIsIsolated(t *testing.T) {
	stub := newRelayStub(t)
	c := New(stub.url(), 42, WithReconnectDelay(50*time.Millisecond))
	defer c.Close()

	var mu sync.Mutex
	var survived int
	c.OnMessage(FramePrivateMessage, func(*ServerFrame) {
		panic("bad subscriber")
	})
	c.OnMessage(FramePrivateMessage, func(*ServerFrame) {
		mu.Lock()
		defer mu.Unlock()
		survived++
	})

	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, c.Connected)

	stub.push(deliveryFrame)
	stub.push(deliveryFrame)

	// Both frames reach the surviving handler and the connection stays up.
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return survived == 2
	})
	if !c.Connected() {
		t.Error("expected connection to survive handler panic")
	}
}

func TestClientErrorFrameText(t *testing.T) {
	stub := newRelayStub(t)
	c := New(stub.url(), 42, WithReconnectDelay(50*time.Millisecond))
	defer c.Close()

	var mu sync.Mutex
	var texts []string
	c.OnMessage(FrameError, func(f *ServerFrame) {
		mu.Lock()
		defer mu.Unlock()
		texts = append(texts, f.ErrorText())
	})

	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, c.Connected)

	stub.push([]byte(`{"type":"error","message":"failed to send message"}`))
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(texts) == 1 && texts[0] == "failed to send message"
	})
}
