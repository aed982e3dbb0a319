package relay

import (
	"context"

	"github.com/korsetof/chatmod/internal/models"
)

// MessageStore is the narrow persistence boundary the relay depends on. A
// message must be durably persisted before any delivery decision is made;
// the Create methods return the stored record including its id and
// timestamp.
type MessageStore interface {
	CreateDirectMessage(ctx context.Context, senderID, receiverID uint, content string, mediaType models.MediaType, mediaURL string) (*models.DirectMessage, error)
	CreateRoomMessage(ctx context.Context, roomID, senderID uint, content string, mediaType models.MediaType, mediaURL string) (*models.RoomMessage, error)
	// RoomMemberIDs resolves the current membership of a room. It is queried
	// fresh on every room message because membership changes between
	// messages.
	RoomMemberIDs(ctx context.Context, roomID uint) ([]uint, error)
}

// PresenceTracker mirrors registry membership into an external presence view
// (online badges, "last seen"). Calls are best effort.
type PresenceTracker interface {
	SetUserOnline(ctx context.Context, userID uint) error
	SetUserOffline(ctx context.Context, userID uint) error
}

// MessageEvent describes one persisted message for downstream consumers.
type MessageEvent struct {
	Kind       string `json:"kind"` // "direct" or "room"
	MessageID  uint   `json:"messageId"`
	SenderID   uint   `json:"senderId"`
	ReceiverID uint   `json:"receiverId,omitempty"`
	RoomID     uint   `json:"roomId,omitempty"`
	CreatedAt  int64  `json:"createdAt"`
}

// EventPublisher receives an event for every persisted message, after
// delivery has been attempted. Publishing is best effort and never blocks
// the relay.
type EventPublisher interface {
	PublishMessageEvent(ctx context.Context, event MessageEvent) error
}
