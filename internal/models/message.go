package models

import (
	"fmt"
	"time"
)

// MediaType classifies the payload of a message.
type MediaType string

const (
	MediaTypeText  MediaType = "text"
	MediaTypeImage MediaType = "image"
	MediaTypeAudio MediaType = "audio"
	MediaTypeVideo MediaType = "video"
)

// IsValid checks if the MediaType is a valid enum value.
func (mt MediaType) IsValid() bool {
	switch mt {
	case MediaTypeText, MediaTypeImage, MediaTypeAudio, MediaTypeVideo:
		return true
	default:
		return false
	}
}

// ValidateMessagePayload enforces the payload shape shared by the live relay
// path and the durable-write fallback: text messages carry content, media
// messages carry a URL.
func ValidateMessagePayload(content string, mediaType MediaType, mediaURL string) error {
	if !mediaType.IsValid() {
		return fmt.Errorf("invalid media type: %q", mediaType)
	}
	if content == "" && mediaURL == "" {
		return fmt.Errorf("content or mediaUrl is required")
	}
	if mediaType == MediaTypeText && content == "" {
		return fmt.Errorf("content is required for text messages")
	}
	if mediaType != MediaTypeText && mediaURL == "" {
		return fmt.Errorf("mediaUrl is required for %s messages", mediaType)
	}
	return nil
}

/** --------------------ENTITIES-------------------- */

// DirectMessage is a persisted one-to-one message. Immutable after creation
// except for the read flag.
type DirectMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uint      `gorm:"not null;index" json:"senderId"`
	ReceiverID uint      `gorm:"not null;index" json:"receiverId"`
	Content    string    `json:"content"`
	MediaType  MediaType `gorm:"type:varchar(16);not null;default:'text'" json:"mediaType"`
	MediaURL   string    `json:"mediaUrl"`
	Read       bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RoomMessage is a persisted message in a chat room.
type RoomMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"not null;index" json:"roomId"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	Content   string    `json:"content"`
	MediaType MediaType `gorm:"type:varchar(16);not null;default:'text'" json:"mediaType"`
	MediaURL  string    `json:"mediaUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

/** -------------------- DTOs -------------------- */

// Request
type SendMessageRequest struct {
	Type       string    `json:"type" binding:"required,oneof=direct room"`
	ReceiverID *uint     `json:"receiverId,omitempty"` // for direct
	RoomID     *uint     `json:"roomId,omitempty"`     // for room
	Content    string    `json:"content"`
	MediaType  MediaType `json:"mediaType"`
	MediaURL   string    `json:"mediaUrl"`
}

// Validate checks that the request targets exactly one recipient kind.
func (r *SendMessageRequest) Validate() error {
	switch r.Type {
	case "direct":
		if r.ReceiverID == nil || *r.ReceiverID == 0 {
			return fmt.Errorf("receiverId is required for direct messages")
		}
	case "room":
		if r.RoomID == nil || *r.RoomID == 0 {
			return fmt.Errorf("roomId is required for room messages")
		}
	default:
		return fmt.Errorf("invalid message type: %q", r.Type)
	}
	return ValidateMessagePayload(r.Content, r.MediaType, r.MediaURL)
}

// Response
type PaginatedRoomMessages struct {
	Items      []RoomMessage `json:"items"`
	Total      int           `json:"total"`
	NextCursor *uint         `json:"nextCursor,omitempty"` // oldest id in the page, pass back as ?before= for older messages
}
