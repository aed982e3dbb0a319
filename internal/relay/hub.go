package relay

import (
	"context"
	"errors"
	"log/slog"

	"github.com/korsetof/chatmod/internal/models"
)

type eventKind int

const (
	evConnect eventKind = iota
	evDisconnect
	evFrame
)

// hubEvent is one queued lifecycle or frame event. Everything flows through
// a single channel so a session's connect is always processed before its
// frames and its frames before its disconnect.
type hubEvent struct {
	kind eventKind
	sess Session
	data []byte
}

// Hub is the connection handler and fan-out delivery engine. A single run
// loop drains connect/disconnect/frame events, so per-session auth state is
// confined to one goroutine and frames for a given connection are delivered
// in the order their messages were handled.
type Hub struct {
	registry *SessionRegistry
	store    MessageStore
	presence PresenceTracker // optional
	events   EventPublisher  // optional

	// users holds the authenticated user id per live session, owned by the
	// run loop. Zero means the session has not authenticated yet.
	users map[Session]uint

	queue chan hubEvent

	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// NewHub creates a hub around the given store. presence and events may be
// nil.
func NewHub(store MessageStore, presence PresenceTracker, events EventPublisher, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry: NewSessionRegistry(),
		store:    store,
		presence: presence,
		events:   events,
		users:    make(map[Session]uint),
		queue:    make(chan hubEvent, 256),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
	}
}

// Registry exposes the session registry for health reporting.
func (h *Hub) Registry() *SessionRegistry {
	return h.registry
}

// Run drains hub events until Stop is called. Should be called as a
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case ev := <-h.queue:
			switch ev.kind {
			case evConnect:
				h.users[ev.sess] = 0
			case evDisconnect:
				h.dropSession(ev.sess)
			case evFrame:
				h.handleFrame(ev.sess, ev.data)
			}
		case <-h.ctx.Done():
			h.logger.Info("relay hub shutting down")
			return
		}
	}
}

// Stop signals the run loop to exit.
func (h *Hub) Stop() {
	h.cancel()
}

func (h *Hub) enqueue(ev hubEvent) {
	select {
	case h.queue <- ev:
	case <-h.ctx.Done():
	}
}

// Connect announces a freshly opened, unauthenticated session.
func (h *Hub) Connect(s Session) {
	h.enqueue(hubEvent{kind: evConnect, sess: s})
}

// Disconnect announces a transport close. Closing is immediate and
// unconditional; any fan-out racing the close simply skips the session.
func (h *Hub) Disconnect(s Session) {
	h.enqueue(hubEvent{kind: evDisconnect, sess: s})
}

// HandleFrame queues one raw inbound frame for dispatch.
func (h *Hub) HandleFrame(s Session, data []byte) {
	h.enqueue(hubEvent{kind: evFrame, sess: s, data: data})
}

func (h *Hub) dropSession(s Session) {
	userID, ok := h.users[s]
	if !ok {
		return
	}
	delete(h.users, s)
	if userID == 0 {
		return
	}
	h.registry.Unregister(userID, s)
	h.logger.Info("session closed", "session", s.ID(), "userID", userID)

	if h.presence != nil && len(h.registry.ConnectionsFor(userID)) == 0 {
		if err := h.presence.SetUserOffline(h.ctx, userID); err != nil {
			h.logger.Error("failed to set user offline", "userID", userID, "error", err)
		}
	}
}

func (h *Hub) handleFrame(s Session, data []byte) {
	userID, ok := h.users[s]
	if !ok {
		// Raced with a disconnect; the session is gone.
		return
	}

	in, err := DecodeInbound(data)
	if err != nil {
		if errors.Is(err, ErrUnknownFrameType) {
			h.pushError(s, "unknown message type")
		} else {
			h.pushError(s, "invalid message format")
		}
		return
	}

	switch f := in.(type) {
	case *AuthFrame:
		h.handleAuth(s, userID, f)
	case *PrivateMessageFrame:
		if userID == 0 {
			h.pushError(s, "authentication required")
			return
		}
		h.handlePrivateMessage(s, userID, f)
	case *ChatMessageFrame:
		if userID == 0 {
			h.pushError(s, "authentication required")
			return
		}
		h.handleChatMessage(s, userID, f)
	}
}

func (h *Hub) handleAuth(s Session, current uint, f *AuthFrame) {
	if current != 0 {
		// Repeated auth keeps the original identity.
		return
	}
	if f.UserID == 0 {
		// Tolerated so buggy clients stay connected until they retry with a
		// well-formed frame. TODO: close instead once the web client's auth
		// handshake is verified to always send a positive integer id.
		h.logger.Warn("ignoring malformed auth frame", "session", s.ID())
		return
	}

	h.users[s] = f.UserID
	h.registry.Register(f.UserID, s)

	if h.presence != nil {
		if err := h.presence.SetUserOnline(h.ctx, f.UserID); err != nil {
			h.logger.Error("failed to set user online", "userID", f.UserID, "error", err)
		}
	}

	h.push(s, EncodeAuthSuccess())
	h.logger.Info("session authenticated", "session", s.ID(), "userID", f.UserID)
}

func (h *Hub) handlePrivateMessage(s Session, senderID uint, f *PrivateMessageFrame) {
	if err := f.Validate(); err != nil {
		h.pushError(s, err.Error())
		return
	}

	msg, err := h.store.CreateDirectMessage(h.ctx, senderID, f.ReceiverID, f.Content, f.MediaType, f.MediaURL)
	if err != nil {
		h.logger.Error("failed to persist direct message", "senderID", senderID, "receiverID", f.ReceiverID, "error", err)
		h.pushError(s, "failed to send message")
		return
	}

	frame, err := EncodeDirectDelivery(msg)
	if err != nil {
		h.logger.Error("failed to encode direct message", "messageID", msg.ID, "error", err)
		return
	}

	h.deliver(frame, []uint{f.ReceiverID})
	h.publishEvent(MessageEvent{
		Kind:       "direct",
		MessageID:  msg.ID,
		SenderID:   senderID,
		ReceiverID: f.ReceiverID,
		CreatedAt:  msg.CreatedAt.Unix(),
	})
}

func (h *Hub) handleChatMessage(s Session, senderID uint, f *ChatMessageFrame) {
	if err := f.Validate(); err != nil {
		h.pushError(s, err.Error())
		return
	}

	msg, err := h.store.CreateRoomMessage(h.ctx, f.RoomID, senderID, f.Content, f.MediaType, f.MediaURL)
	if err != nil {
		h.logger.Error("failed to persist room message", "senderID", senderID, "roomID", f.RoomID, "error", err)
		h.pushError(s, "failed to send message")
		return
	}

	// Membership is resolved fresh per message; the sender's own sessions
	// are included when the sender is a member, keeping multiple tabs in
	// sync.
	members, err := h.store.RoomMemberIDs(h.ctx, f.RoomID)
	if err != nil {
		// The message is persisted and retrievable over the history API; only
		// the live push is lost.
		h.logger.Error("failed to resolve room members", "roomID", f.RoomID, "error", err)
		h.pushError(s, "failed to deliver message")
		return
	}

	frame, err := EncodeRoomDelivery(msg)
	if err != nil {
		h.logger.Error("failed to encode room message", "messageID", msg.ID, "error", err)
		return
	}

	h.deliver(frame, members)
	h.publishEvent(MessageEvent{
		Kind:      "room",
		MessageID: msg.ID,
		SenderID:  senderID,
		RoomID:    f.RoomID,
		CreatedAt: msg.CreatedAt.Unix(),
	})
}

// NotifyDirectMessage fans an already-persisted direct message out to the
// receiver's live sessions. Used by the HTTP send path so socket-connected
// peers still get the push.
func (h *Hub) NotifyDirectMessage(msg *models.DirectMessage) {
	frame, err := EncodeDirectDelivery(msg)
	if err != nil {
		h.logger.Error("failed to encode direct message", "messageID", msg.ID, "error", err)
		return
	}
	h.deliver(frame, []uint{msg.ReceiverID})
}

// NotifyRoomMessage fans an already-persisted room message out to the room's
// current members.
func (h *Hub) NotifyRoomMessage(ctx context.Context, msg *models.RoomMessage) {
	members, err := h.store.RoomMemberIDs(ctx, msg.RoomID)
	if err != nil {
		h.logger.Error("failed to resolve room members", "roomID", msg.RoomID, "error", err)
		return
	}
	frame, err := EncodeRoomDelivery(msg)
	if err != nil {
		h.logger.Error("failed to encode room message", "messageID", msg.ID, "error", err)
		return
	}
	h.deliver(frame, members)
}

// deliver pushes one frame to every live session of every recipient, best
// effort and at most once per session. A failed push is logged and skipped;
// one dead connection never blocks the remaining recipients.
func (h *Hub) deliver(frame []byte, recipients []uint) {
	for _, userID := range recipients {
		for _, sess := range h.registry.ConnectionsFor(userID) {
			if err := sess.Push(frame); err != nil {
				h.logger.Warn("skipping dead session during fan-out", "session", sess.ID(), "userID", userID, "error", err)
			}
		}
	}
}

func (h *Hub) publishEvent(ev MessageEvent) {
	if h.events == nil {
		return
	}
	go func() {
		if err := h.events.PublishMessageEvent(context.Background(), ev); err != nil {
			h.logger.Warn("failed to publish message event", "kind", ev.Kind, "messageID", ev.MessageID, "error", err)
		}
	}()
}

func (h *Hub) push(s Session, frame []byte) {
	if err := s.Push(frame); err != nil {
		h.logger.Warn("failed to push frame", "session", s.ID(), "error", err)
	}
}

func (h *Hub) pushError(s Session, message string) {
	h.push(s, EncodeError(message))
}
