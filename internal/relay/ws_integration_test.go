package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/korsetof/chatmod/internal/models"
)

func dialTestServer(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) *ServerFrame {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	frame, err := DecodeServerFrame(data)
	if err != nil {
		t.Fatalf("decode server frame: %v", err)
	}
	return frame
}

func authenticate(t *testing.T, ws *websocket.Conn, userID uint) {
	t.Helper()
	if err := ws.WriteJSON(NewAuthFrame(userID)); err != nil {
		t.Fatalf("write auth: %v", err)
	}
	if frame := readFrame(t, ws); frame.Type != FrameAuthSuccess {
		t.Fatalf("expected auth_success, got %s", frame.Type)
	}
}

func TestWebSocketEndToEnd(t *testing.T) {
	store := newMockMessageStore()
	hub := NewHub(store, nil, nil, nil)
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))
	defer srv.Close()

	sender := dialTestServer(t, srv)
	receiver := dialTestServer(t, srv)
	authenticate(t, sender, 42)
	authenticate(t, receiver, 99)

	if err := sender.WriteJSON(NewPrivateMessageFrame(99, "hello over the wire", models.MediaTypeText, "")); err != nil {
		t.Fatalf("write message: %v", err)
	}

	frame := readFrame(t, receiver)
	if frame.Type != FramePrivateMessage {
		t.Fatalf("expected private_message, got %s", frame.Type)
	}
	var msg models.DirectMessage
	if err := json.Unmarshal(frame.Message, &msg); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if msg.SenderID != 42 || msg.ReceiverID != 99 || msg.Content != "hello over the wire" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if len(store.directMessages()) != 1 {
		t.Errorf("expected message to be persisted before delivery")
	}
}

func TestWebSocketErrorFrameKeepsConnectionOpen(t *testing.T) {
	hub := NewHub(newMockMessageStore(), nil, nil, nil)
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))
	defer srv.Close()

	ws := dialTestServer(t, srv)
	authenticate(t, ws, 42)

	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"bogus"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readFrame(t, ws)
	if frame.Type != FrameError {
		t.Fatalf("expected error frame, got %s", frame.Type)
	}

	// The same connection still accepts traffic.
	if err := ws.WriteJSON(NewPrivateMessageFrame(99, "hi", models.MediaTypeText, "")); err != nil {
		t.Fatalf("write after error: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if hub.Registry().SessionCount() != 1 {
		t.Errorf("expected session to stay registered")
	}
}
