package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korsetof/chatmod/internal/api/middleware"
	"github.com/korsetof/chatmod/internal/models"
)

type stubMessageStore struct {
	nextID     uint
	direct     []*models.DirectMessage
	room       []*models.RoomMessage
	failCreate bool
}

func (s *stubMessageStore) CreateDirectMessage(_ context.Context, senderID, receiverID uint, content string, mediaType models.MediaType, mediaURL string) (*models.DirectMessage, error) {
	if s.failCreate {
		return nil, fmt.Errorf("store unavailable")
	}
	s.nextID++
	msg := &models.DirectMessage{
		ID: s.nextID, SenderID: senderID, ReceiverID: receiverID,
		Content: content, MediaType: mediaType, MediaURL: mediaURL,
		CreatedAt: time.Now().UTC(),
	}
	s.direct = append(s.direct, msg)
	return msg, nil
}

func (s *stubMessageStore) CreateRoomMessage(_ context.Context, roomID, senderID uint, content string, mediaType models.MediaType, mediaURL string) (*models.RoomMessage, error) {
	if s.failCreate {
		return nil, fmt.Errorf("store unavailable")
	}
	s.nextID++
	msg := &models.RoomMessage{
		ID: s.nextID, RoomID: roomID, UserID: senderID,
		Content: content, MediaType: mediaType, MediaURL: mediaURL,
		CreatedAt: time.Now().UTC(),
	}
	s.room = append(s.room, msg)
	return msg, nil
}

func (s *stubMessageStore) RoomMemberIDs(context.Context, uint) ([]uint, error) { return nil, nil }

func (s *stubMessageStore) Conversation(_ context.Context, userID, otherID uint, _ int) ([]models.DirectMessage, error) {
	var out []models.DirectMessage
	for _, m := range s.direct {
		if (m.SenderID == userID && m.ReceiverID == otherID) || (m.SenderID == otherID && m.ReceiverID == userID) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *stubMessageStore) RoomHistory(_ context.Context, roomID uint, _ int, _ uint) ([]models.RoomMessage, error) {
	var out []models.RoomMessage
	for _, m := range s.room {
		if m.RoomID == roomID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *stubMessageStore) MarkRead(_ context.Context, userID, otherID uint) error {
	for _, m := range s.direct {
		if m.ReceiverID == userID && m.SenderID == otherID {
			m.Read = true
		}
	}
	return nil
}

func (s *stubMessageStore) UnreadCounts(_ context.Context, userID uint) (map[uint]int64, error) {
	counts := make(map[uint]int64)
	for _, m := range s.direct {
		if m.ReceiverID == userID && !m.Read {
			counts[m.SenderID]++
		}
	}
	return counts, nil
}

type stubNotifier struct {
	direct []*models.DirectMessage
	room   []*models.RoomMessage
}

func (n *stubNotifier) NotifyDirectMessage(msg *models.DirectMessage) {
	n.direct = append(n.direct, msg)
}

func (n *stubNotifier) NotifyRoomMessage(_ context.Context, msg *models.RoomMessage) {
	n.room = append(n.room, msg)
}

func newMessageTestRouter(store MessageStore, notifier DeliveryNotifier, userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewMessageHandler(store, notifier, nil)
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
	})
	engine.POST("/messages", h.Send)
	engine.GET("/messages/unread", h.Unread)
	engine.GET("/messages/direct/:id", h.Conversation)
	engine.POST("/messages/direct/:id/read", h.MarkRead)
	engine.GET("/rooms/:id/messages", h.RoomHistory)
	return engine
}

func postJSON(t *testing.T, engine *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestSendDirectMessagePersistsAndNotifies(t *testing.T) {
	store := &stubMessageStore{}
	notifier := &stubNotifier{}
	engine := newMessageTestRouter(store, notifier, 42)

	receiver := uint(99)
	w := postJSON(t, engine, "/messages", models.SendMessageRequest{
		Type: "direct", ReceiverID: &receiver, Content: "hi", MediaType: models.MediaTypeText,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var msg models.DirectMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	assert.Equal(t, uint(42), msg.SenderID)
	assert.Equal(t, uint(99), msg.ReceiverID)

	require.Len(t, store.direct, 1)
	require.Len(t, notifier.direct, 1)
	assert.Equal(t, store.direct[0].ID, notifier.direct[0].ID, "notified message is the persisted one")
}

func TestSendRoomMessagePersistsAndNotifies(t *testing.T) {
	store := &stubMessageStore{}
	notifier := &stubNotifier{}
	engine := newMessageTestRouter(store, notifier, 42)

	room := uint(3)
	w := postJSON(t, engine, "/messages", models.SendMessageRequest{
		Type: "room", RoomID: &room, Content: "hello", MediaType: models.MediaTypeText,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, store.room, 1)
	require.Len(t, notifier.room, 1)
}

func TestSendMessageValidation(t *testing.T) {
	receiver := uint(99)
	room := uint(3)
	tests := []struct {
		name string
		req  models.SendMessageRequest
	}{
		{"missing receiver", models.SendMessageRequest{Type: "direct", Content: "hi", MediaType: models.MediaTypeText}},
		{"missing room", models.SendMessageRequest{Type: "room", Content: "hi", MediaType: models.MediaTypeText}},
		{"empty text", models.SendMessageRequest{Type: "direct", ReceiverID: &receiver, MediaType: models.MediaTypeText}},
		{"image without url", models.SendMessageRequest{Type: "room", RoomID: &room, Content: "x", MediaType: models.MediaTypeImage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubMessageStore{}
			engine := newMessageTestRouter(store, nil, 42)
			w := postJSON(t, engine, "/messages", tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, store.direct)
			assert.Empty(t, store.room)
		})
	}
}

func TestSendMessageStoreFailure(t *testing.T) {
	store := &stubMessageStore{failCreate: true}
	notifier := &stubNotifier{}
	engine := newMessageTestRouter(store, notifier, 42)

	receiver := uint(99)
	w := postJSON(t, engine, "/messages", models.SendMessageRequest{
		Type: "direct", ReceiverID: &receiver, Content: "hi", MediaType: models.MediaTypeText,
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, notifier.direct, "no live push when persistence fails")
}

func TestConversationAndMarkRead(t *testing.T) {
	store := &stubMessageStore{}
	_, err := store.CreateDirectMessage(context.Background(), 99, 42, "hello", models.MediaTypeText, "")
	require.NoError(t, err)
	engine := newMessageTestRouter(store, nil, 42)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/messages/unread", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var unread struct {
		Counts map[uint]int64 `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &unread))
	assert.Equal(t, int64(1), unread.Counts[99])

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/messages/direct/99/read", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/messages/direct/99", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var conv struct {
		Items []models.DirectMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))
	require.Len(t, conv.Items, 1)
	assert.True(t, conv.Items[0].Read)
}

func TestRoomHistoryCursor(t *testing.T) {
	store := &stubMessageStore{}
	for i := 0; i < 3; i++ {
		_, err := store.CreateRoomMessage(context.Background(), 3, 42, fmt.Sprintf("m%d", i), models.MediaTypeText, "")
		require.NoError(t, err)
	}
	engine := newMessageTestRouter(store, nil, 42)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms/3/messages", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.PaginatedRoomMessages
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	require.NotNil(t, resp.NextCursor)
}
