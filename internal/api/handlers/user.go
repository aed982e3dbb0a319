package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/korsetof/chatmod/internal/api/middleware"
	"github.com/korsetof/chatmod/internal/models"
	"github.com/korsetof/chatmod/internal/repositories/postgres"
	"github.com/korsetof/chatmod/internal/services"
)

// UserHandler serves profiles, user search and presence.
type UserHandler struct {
	users    *services.UserService
	presence *services.PresenceService
	logger   *slog.Logger
}

func NewUserHandler(users *services.UserService, presence *services.PresenceService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, presence: presence, logger: logger}
}

// Me handles GET /users/me.
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.users.Profile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.logger.Error("failed to load profile", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe handles PATCH /users/me.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		h.logger.Error("failed to update profile", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to update profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Get handles GET /users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.users.Profile(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		h.logger.Error("failed to load user", "userID", id, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Search handles GET /users?q=.
func (h *UserHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "query parameter q is required")
		return
	}

	users, err := h.users.Search(c.Request.Context(), query, middleware.UserID(c), queryInt(c, "limit", 20))
	if err != nil {
		h.logger.Error("user search failed", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "search failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": users})
}

// Presence handles GET /users/:id/presence.
func (h *UserHandler) Presence(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	online, err := h.presence.IsUserOnline(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("presence lookup failed", "userID", id, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "presence lookup failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": id, "online": online})
}
