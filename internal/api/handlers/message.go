package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/korsetof/chatmod/internal/api/middleware"
	"github.com/korsetof/chatmod/internal/models"
)

// MessageStore is the persistence surface MessageHandler needs. The postgres
// message repository implements it.
type MessageStore interface {
	CreateDirectMessage(ctx context.Context, senderID, receiverID uint, content string, mediaType models.MediaType, mediaURL string) (*models.DirectMessage, error)
	CreateRoomMessage(ctx context.Context, roomID, senderID uint, content string, mediaType models.MediaType, mediaURL string) (*models.RoomMessage, error)
	RoomMemberIDs(ctx context.Context, roomID uint) ([]uint, error)
	Conversation(ctx context.Context, userID, otherID uint, limit int) ([]models.DirectMessage, error)
	RoomHistory(ctx context.Context, roomID uint, limit int, before uint) ([]models.RoomMessage, error)
	MarkRead(ctx context.Context, userID, otherID uint) error
	UnreadCounts(ctx context.Context, userID uint) (map[uint]int64, error)
}

// DeliveryNotifier pushes an already-persisted message to live websocket
// sessions. The relay hub implements it.
type DeliveryNotifier interface {
	NotifyDirectMessage(msg *models.DirectMessage)
	NotifyRoomMessage(ctx context.Context, msg *models.RoomMessage)
}

// MessageHandler serves message history and the HTTP send path. Sending over
// HTTP persists exactly like the websocket path and still pushes to any
// recipients with live sessions, so clients whose socket is down lose
// nothing but latency.
type MessageHandler struct {
	store    MessageStore
	notifier DeliveryNotifier // optional
	logger   *slog.Logger
}

func NewMessageHandler(store MessageStore, notifier DeliveryNotifier, logger *slog.Logger) *MessageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageHandler{store: store, notifier: notifier, logger: logger}
}

// Send handles POST /messages.
func (h *MessageHandler) Send(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	senderID := middleware.UserID(c)
	ctx := c.Request.Context()

	switch req.Type {
	case "direct":
		msg, err := h.store.CreateDirectMessage(ctx, senderID, *req.ReceiverID, req.Content, req.MediaType, req.MediaURL)
		if err != nil {
			h.logger.Error("failed to persist direct message", "senderID", senderID, "error", err)
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to send message")
			return
		}
		if h.notifier != nil {
			h.notifier.NotifyDirectMessage(msg)
		}
		c.JSON(http.StatusCreated, msg)
	case "room":
		msg, err := h.store.CreateRoomMessage(ctx, *req.RoomID, senderID, req.Content, req.MediaType, req.MediaURL)
		if err != nil {
			h.logger.Error("failed to persist room message", "senderID", senderID, "error", err)
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to send message")
			return
		}
		if h.notifier != nil {
			h.notifier.NotifyRoomMessage(ctx, msg)
		}
		c.JSON(http.StatusCreated, msg)
	}
}

// Conversation handles GET /messages/direct/:id.
func (h *MessageHandler) Conversation(c *gin.Context) {
	otherID, ok := pathID(c, "id")
	if !ok {
		return
	}

	msgs, err := h.store.Conversation(c.Request.Context(), middleware.UserID(c), otherID, queryInt(c, "limit", 50))
	if err != nil {
		h.logger.Error("failed to load conversation", "otherID", otherID, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load conversation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": msgs})
}

// MarkRead handles POST /messages/direct/:id/read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	otherID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.store.MarkRead(c.Request.Context(), middleware.UserID(c), otherID); err != nil {
		h.logger.Error("failed to mark messages read", "otherID", otherID, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to mark messages read")
		return
	}
	c.Status(http.StatusNoContent)
}

// Unread handles GET /messages/unread.
func (h *MessageHandler) Unread(c *gin.Context) {
	counts, err := h.store.UnreadCounts(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.logger.Error("failed to count unread messages", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to count unread messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

// RoomHistory handles GET /rooms/:id/messages.
func (h *MessageHandler) RoomHistory(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	before := uint(queryInt(c, "before", 0))
	msgs, err := h.store.RoomHistory(c.Request.Context(), roomID, queryInt(c, "limit", 50), before)
	if err != nil {
		h.logger.Error("failed to load room history", "roomID", roomID, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load room history")
		return
	}

	resp := models.PaginatedRoomMessages{Items: msgs, Total: len(msgs)}
	if len(msgs) > 0 {
		oldest := msgs[len(msgs)-1].ID
		resp.NextCursor = &oldest
	}
	c.JSON(http.StatusOK, resp)
}
