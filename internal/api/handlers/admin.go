package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/korsetof/chatmod/internal/repositories/postgres"
	"github.com/korsetof/chatmod/internal/services"
)

// AdminHandler serves the moderation surface.
type AdminHandler struct {
	users  *services.UserService
	logger *slog.Logger
}

func NewAdminHandler(users *services.UserService, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{users: users, logger: logger}
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, total, err := h.users.List(c.Request.Context(), queryInt(c, "offset", 0), queryInt(c, "limit", 20))
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": users, "total": total})
}

// Ban handles POST /admin/users/:id/ban. A banned user can no longer log
// in; live sessions expire with their token.
func (h *AdminHandler) Ban(c *gin.Context) {
	h.setBanned(c, true)
}

// Unban handles DELETE /admin/users/:id/ban.
func (h *AdminHandler) Unban(c *gin.Context) {
	h.setBanned(c, false)
}

func (h *AdminHandler) setBanned(c *gin.Context, banned bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.users.SetBanned(c.Request.Context(), id, banned); err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		h.logger.Error("failed to update ban state", "userID", id, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to update ban state")
		return
	}
	c.Status(http.StatusNoContent)
}
