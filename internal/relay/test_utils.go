package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/korsetof/chatmod/internal/models"
)

// mockSession implements Session for testing.
type mockSession struct {
	id       string
	mu       sync.Mutex
	frames   [][]byte
	failPush bool
}

func newMockSession(id string) *mockSession {
	return &mockSession{id: id}
}

func (m *mockSession) ID() string {
	return m.id
}

func (m *mockSession) Push(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPush {
		return ErrSessionClosed
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.frames = append(m.frames, cp)
	return nil
}

func (m *mockSession) Frames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([][]byte, len(m.frames))
	copy(cp, m.frames)
	return cp
}

// FramesOfType decodes received frames and filters by type.
func (m *mockSession) FramesOfType(t FrameType) []*ServerFrame {
	var out []*ServerFrame
	for _, data := range m.Frames() {
		f, err := DecodeServerFrame(data)
		if err != nil {
			continue
		}
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

// mockMessageStore implements MessageStore for testing.
type mockMessageStore struct {
	mu         sync.Mutex
	nextID     uint
	direct     []*models.DirectMessage
	room       []*models.RoomMessage
	members    map[uint][]uint
	failCreate bool
	memberErr  error
}

func newMockMessageStore() *mockMessageStore {
	return &mockMessageStore{members: make(map[uint][]uint)}
}

func (s *mockMessageStore) CreateDirectMessage(_ context.Context, senderID, receiverID uint, content string, mediaType models.MediaType, mediaURL string) (*models.DirectMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return nil, fmt.Errorf("store unavailable")
	}
	s.nextID++
	msg := &models.DirectMessage{
		ID:         s.nextID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		MediaType:  mediaType,
		MediaURL:   mediaURL,
		CreatedAt:  time.Now().UTC(),
	}
	s.direct = append(s.direct, msg)
	return msg, nil
}

func (s *mockMessageStore) CreateRoomMessage(_ context.Context, roomID, senderID uint, content string, mediaType models.MediaType, mediaURL string) (*models.RoomMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return nil, fmt.Errorf("store unavailable")
	}
	s.nextID++
	msg := &models.RoomMessage{
		ID:        s.nextID,
		RoomID:    roomID,
		UserID:    senderID,
		Content:   content,
		MediaType: mediaType,
		MediaURL:  mediaURL,
		CreatedAt: time.Now().UTC(),
	}
	s.room = append(s.room, msg)
	return msg, nil
}

func (s *mockMessageStore) RoomMemberIDs(_ context.Context, roomID uint) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memberErr != nil {
		return nil, s.memberErr
	}
	return s.members[roomID], nil
}

func (s *mockMessageStore) directMessages() []*models.DirectMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]*models.DirectMessage, len(s.direct))
	copy(cp, s.direct)
	return cp
}

func (s *mockMessageStore) setMembers(roomID uint, userIDs ...uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[roomID] = userIDs
}

func (s *mockMessageStore) setFailCreate(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCreate = fail
}

// mockPresence implements PresenceTracker for testing.
type mockPresence struct {
	mu     sync.Mutex
	online map[uint]bool
}

func newMockPresence() *mockPresence {
	return &mockPresence{online: make(map[uint]bool)}
}

func (p *mockPresence) SetUserOnline(_ context.Context, userID uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID] = true
	return nil
}

func (p *mockPresence) SetUserOffline(_ context.Context, userID uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, userID)
	return nil
}

func (p *mockPresence) isOnline(userID uint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}
