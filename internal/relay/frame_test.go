package relay

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/korsetof/chatmod/internal/models"
)

func TestDecodeInboundAuth(t *testing.T) {
	t.Parallel()
	in, err := DecodeInbound([]byte(`{"type":"auth","userId":42}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	f, ok := in.(*AuthFrame)
	if !ok {
		t.Fatalf("expected *AuthFrame, got %T", in)
	}
	if f.UserID != 42 {
		t.Errorf("expected userId 42, got %d", f.UserID)
	}
}

func TestDecodeInboundMalformedAuthIsTolerated(t *testing.T) {
	t.Parallel()
	// A broken userId decodes to a zero-id auth frame instead of an error so
	// the connection stays open.
	in, err := DecodeInbound([]byte(`{"type":"auth","userId":"not-a-number"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	f, ok := in.(*AuthFrame)
	if !ok {
		t.Fatalf("expected *AuthFrame, got %T", in)
	}
	if f.UserID != 0 {
		t.Errorf("expected zero userId, got %d", f.UserID)
	}
}

func TestDecodeInboundPrivateMessage(t *testing.T) {
	t.Parallel()
	in, err := DecodeInbound([]byte(`{"type":"private_message","receiverId":99,"content":"hi","mediaType":"text","mediaUrl":""}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	f, ok := in.(*PrivateMessageFrame)
	if !ok {
		t.Fatalf("expected *PrivateMessageFrame, got %T", in)
	}
	if f.ReceiverID != 99 || f.Content != "hi" || f.MediaType != models.MediaTypeText {
		t.Errorf("unexpected frame: %+v", f)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("expected valid frame, got %v", err)
	}
}

func TestDecodeInboundChatMessage(t *testing.T) {
	t.Parallel()
	in, err := DecodeInbound([]byte(`{"type":"chat_message","roomId":3,"content":"","mediaType":"image","mediaUrl":"http://cdn/img.png"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	f, ok := in.(*ChatMessageFrame)
	if !ok {
		t.Fatalf("expected *ChatMessageFrame, got %T", in)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("expected valid frame, got %v", err)
	}
}

func TestDecodeInboundErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data string
		want error
	}{
		{"invalid json", `{not json`, ErrInvalidFrame},
		{"unknown type", `{"type":"presence_ping"}`, ErrUnknownFrameType},
		{"missing type", `{"content":"hi"}`, ErrUnknownFrameType},
		{"wrong field type", `{"type":"private_message","receiverId":"abc"}`, ErrInvalidFrame},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInbound([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFrameValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		frame   interface{ Validate() error }
		wantErr bool
	}{
		{"text with content", NewPrivateMessageFrame(2, "hi", models.MediaTypeText, ""), false},
		{"empty text", NewPrivateMessageFrame(2, "", models.MediaTypeText, ""), true},
		{"image with url", NewPrivateMessageFrame(2, "", models.MediaTypeImage, "http://cdn/a.png"), false},
		{"image without url", NewPrivateMessageFrame(2, "look", models.MediaTypeImage, ""), true},
		{"missing receiver", NewPrivateMessageFrame(0, "hi", models.MediaTypeText, ""), true},
		{"bad media type", NewPrivateMessageFrame(2, "hi", models.MediaType("gif"), ""), true},
		{"room text", NewChatMessageFrame(3, "hello", models.MediaTypeText, ""), false},
		{"missing room", NewChatMessageFrame(0, "hello", models.MediaTypeText, ""), true},
		{"room audio", NewChatMessageFrame(3, "", models.MediaTypeAudio, "http://cdn/a.ogg"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.frame.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeDirectDeliveryShape(t *testing.T) {
	t.Parallel()
	msg := &models.DirectMessage{ID: 5, SenderID: 42, ReceiverID: 99, Content: "hi", MediaType: models.MediaTypeText}
	data, err := EncodeDirectDelivery(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	frame, err := DecodeServerFrame(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if frame.Type != FramePrivateMessage {
		t.Errorf("expected type private_message, got %s", frame.Type)
	}

	var got map[string]any
	if err := json.Unmarshal(frame.Message, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	for _, key := range []string{"id", "senderId", "receiverId", "content", "mediaType", "mediaUrl", "read", "createdAt"} {
		if _, ok := got[key]; !ok {
			t.Errorf("payload missing %q: %v", key, got)
		}
	}
}

func TestEncodeErrorRoundTrip(t *testing.T) {
	t.Parallel()
	frame, err := DecodeServerFrame(EncodeError("boom"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if frame.Type != FrameError {
		t.Errorf("expected error frame, got %s", frame.Type)
	}
	if frame.ErrorText() != "boom" {
		t.Errorf("expected error text %q, got %q", "boom", frame.ErrorText())
	}
}
