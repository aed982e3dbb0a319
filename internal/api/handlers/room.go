package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/korsetof/chatmod/internal/api/middleware"
	"github.com/korsetof/chatmod/internal/models"
	"github.com/korsetof/chatmod/internal/repositories/postgres"
)

// RoomStore is the persistence surface RoomHandler needs.
type RoomStore interface {
	Create(ctx context.Context, room *models.Room) error
	FindByID(ctx context.Context, id uint) (*models.Room, error)
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id uint) error
	AddMember(ctx context.Context, roomID, userID uint) error
	RemoveMember(ctx context.Context, roomID, userID uint) error
	IsMember(ctx context.Context, roomID, userID uint) (bool, error)
	RoomsForUser(ctx context.Context, userID uint) ([]models.Room, error)
}

// RoomHandler serves room CRUD and membership.
type RoomHandler struct {
	rooms  RoomStore
	logger *slog.Logger
}

func NewRoomHandler(rooms RoomStore, logger *slog.Logger) *RoomHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomHandler{rooms: rooms, logger: logger}
}

// Create handles POST /rooms.
func (h *RoomHandler) Create(c *gin.Context) {
	var req models.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	room := &models.Room{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     middleware.UserID(c),
	}
	if err := h.rooms.Create(c.Request.Context(), room); err != nil {
		h.logger.Error("failed to create room", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create room")
		return
	}
	c.JSON(http.StatusCreated, models.NewRoomResponse(room))
}

// List handles GET /rooms, returning the caller's rooms.
func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.rooms.RoomsForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.logger.Error("failed to list rooms", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list rooms")
		return
	}

	out := make([]models.RoomResponse, 0, len(rooms))
	for i := range rooms {
		out = append(out, models.NewRoomResponse(&rooms[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// Get handles GET /rooms/:id.
func (h *RoomHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	room, err := h.rooms.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, postgres.ErrRoomNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "room not found")
			return
		}
		h.logger.Error("failed to load room", "roomID", id, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load room")
		return
	}

	detail := models.RoomDetailResponse{RoomResponse: models.NewRoomResponse(room)}
	detail.Members = make([]models.UserResponse, 0, len(room.Members))
	for _, m := range room.Members {
		detail.Members = append(detail.Members, models.NewUserResponse(m))
	}
	c.JSON(http.StatusOK, detail)
}

// Update handles PATCH /rooms/:id. Owner only.
func (h *RoomHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	room, err := h.rooms.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, postgres.ErrRoomNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "room not found")
			return
		}
		h.logger.Error("failed to load room", "roomID", id, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load room")
		return
	}
	if room.OwnerID != middleware.UserID(c) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "only the owner can update the room")
		return
	}

	if req.Name != nil {
		room.Name = *req.Name
	}
	if req.Description != nil {
		room.Description = *req.Description
	}
	if err := h.rooms.Update(c.Request.Context(), room); err != nil {
		h.logger.Error("failed to update room", "roomID", id, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to update room")
		return
	}
	c.JSON(http.StatusOK, models.NewRoomResponse(room))
}

// Delete handles DELETE /rooms/:id. Owner only.
func (h *RoomHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	room, err := h.rooms.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, postgres.ErrRoomNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "room not found")
			return
		}
		h.logger.Error("failed to load room", "roomID", id, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load room")
		return
	}
	if room.OwnerID != middleware.UserID(c) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "only the owner can delete the room")
		return
	}

	if err := h.rooms.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("failed to delete room", "roomID", id, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to delete room")
		return
	}
	c.Status(http.StatusNoContent)
}

// Join handles POST /rooms/:id/join.
func (h *RoomHandler) Join(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if _, err := h.rooms.FindByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, postgres.ErrRoomNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "room not found")
			return
		}
		h.logger.Error("failed to load room", "roomID", id, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load room")
		return
	}

	if err := h.rooms.AddMember(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		h.logger.Error("failed to join room", "roomID", id, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to join room")
		return
	}
	c.Status(http.StatusNoContent)
}

// Leave handles POST /rooms/:id/leave.
func (h *RoomHandler) Leave(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.rooms.RemoveMember(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		h.logger.Error("failed to leave room", "roomID", id, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to leave room")
		return
	}
	c.Status(http.StatusNoContent)
}
