package relay

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/korsetof/chatmod/internal/models"
)

// FrameType identifies a wire frame. The inbound set is closed: DecodeInbound
// dispatches over exactly these values and rejects everything else.
type FrameType string

const (
	// Client -> server.
	FrameAuth           FrameType = "auth"
	FramePrivateMessage FrameType = "private_message"
	FrameChatMessage    FrameType = "chat_message"

	// Server -> client. Delivery frames reuse the inbound type names.
	FrameAuthSuccess FrameType = "auth_success"
	FrameError       FrameType = "error"
)

var (
	ErrInvalidFrame     = errors.New("invalid frame")
	ErrUnknownFrameType = errors.New("unknown frame type")
)

// Inbound is the tagged union of client frames.
type Inbound interface {
	frameType() FrameType
}

// AuthFrame binds a connection to a user identity.
type AuthFrame struct {
	Type   FrameType `json:"type"`
	UserID uint      `json:"userId"`
}

// PrivateMessageFrame asks the relay to persist and deliver a direct message.
type PrivateMessageFrame struct {
	Type       FrameType        `json:"type"`
	ReceiverID uint             `json:"receiverId"`
	Content    string           `json:"content"`
	MediaType  models.MediaType `json:"mediaType"`
	MediaURL   string           `json:"mediaUrl"`
}

// ChatMessageFrame asks the relay to persist and deliver a room message.
type ChatMessageFrame struct {
	Type      FrameType        `json:"type"`
	RoomID    uint             `json:"roomId"`
	Content   string           `json:"content"`
	MediaType models.MediaType `json:"mediaType"`
	MediaURL  string           `json:"mediaUrl"`
}

func (*AuthFrame) frameType() FrameType           { return FrameAuth }
func (*PrivateMessageFrame) frameType() FrameType { return FramePrivateMessage }
func (*ChatMessageFrame) frameType() FrameType    { return FrameChatMessage }

// NewAuthFrame creates an auth frame for the given user.
func NewAuthFrame(userID uint) *AuthFrame {
	return &AuthFrame{Type: FrameAuth, UserID: userID}
}

// NewPrivateMessageFrame creates an outbound direct-message frame.
func NewPrivateMessageFrame(receiverID uint, content string, mediaType models.MediaType, mediaURL string) *PrivateMessageFrame {
	return &PrivateMessageFrame{
		Type:       FramePrivateMessage,
		ReceiverID: receiverID,
		Content:    content,
		MediaType:  mediaType,
		MediaURL:   mediaURL,
	}
}

// NewChatMessageFrame creates an outbound room-message frame.
func NewChatMessageFrame(roomID uint, content string, mediaType models.MediaType, mediaURL string) *ChatMessageFrame {
	return &ChatMessageFrame{
		Type:      FrameChatMessage,
		RoomID:    roomID,
		Content:   content,
		MediaType: mediaType,
		MediaURL:  mediaURL,
	}
}

// Validate checks the frame against the message payload rules.
func (f *PrivateMessageFrame) Validate() error {
	if f.ReceiverID == 0 {
		return fmt.Errorf("receiverId is required")
	}
	return models.ValidateMessagePayload(f.Content, f.MediaType, f.MediaURL)
}

// Validate checks the frame against the message payload rules.
func (f *ChatMessageFrame) Validate() error {
	if f.RoomID == 0 {
		return fmt.Errorf("roomId is required")
	}
	return models.ValidateMessagePayload(f.Content, f.MediaType, f.MediaURL)
}

// DecodeInbound parses one client frame into its typed variant.
//
// A syntactically broken auth frame decodes to an AuthFrame with a zero
// UserID rather than an error: the hub ignores it and keeps the connection
// open, matching the tolerance for bad auth attempts.
func DecodeInbound(data []byte) (Inbound, error) {
	var head struct {
		Type FrameType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}

	switch head.Type {
	case FrameAuth:
		var f AuthFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return &AuthFrame{Type: FrameAuth}, nil
		}
		return &f, nil

	case FramePrivateMessage:
		var f PrivateMessageFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
		}
		return &f, nil

	case FrameChatMessage:
		var f ChatMessageFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
		}
		return &f, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrameType, head.Type)
	}
}

// ServerFrame is the generic server-to-client envelope. Message holds the
// persisted message object for delivery frames and a JSON string for error
// frames.
type ServerFrame struct {
	Type    FrameType       `json:"type"`
	Message json.RawMessage `json:"message,omitempty"`
}

// DecodeServerFrame parses one server frame.
func DecodeServerFrame(data []byte) (*ServerFrame, error) {
	var f ServerFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if f.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidFrame)
	}
	return &f, nil
}

// ErrorText extracts the message of an error frame.
func (f *ServerFrame) ErrorText() string {
	var s string
	if err := json.Unmarshal(f.Message, &s); err != nil {
		return ""
	}
	return s
}

// EncodeAuthSuccess encodes the auth acknowledgment frame.
func EncodeAuthSuccess() []byte {
	return []byte(`{"type":"auth_success"}`)
}

// EncodeError encodes an error frame for the originating connection.
func EncodeError(message string) []byte {
	data, _ := json.Marshal(struct {
		Type    FrameType `json:"type"`
		Message string    `json:"message"`
	}{FrameError, message})
	return data
}

// EncodeDirectDelivery wraps a persisted direct message for fan-out.
func EncodeDirectDelivery(msg *models.DirectMessage) ([]byte, error) {
	return encodeDelivery(FramePrivateMessage, msg)
}

// EncodeRoomDelivery wraps a persisted room message for fan-out.
func EncodeRoomDelivery(msg *models.RoomMessage) ([]byte, error) {
	return encodeDelivery(FrameChatMessage, msg)
}

func encodeDelivery(t FrameType, msg any) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode delivery frame: %w", err)
	}
	return json.Marshal(ServerFrame{Type: t, Message: payload})
}
