package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/korsetof/chatmod/internal/api/middleware"
	"github.com/korsetof/chatmod/internal/repositories/postgres"
	"github.com/korsetof/chatmod/internal/services"
)

// LikeHandler serves likes and mutual matches.
type LikeHandler struct {
	matches *services.MatchService
	logger  *slog.Logger
}

func NewLikeHandler(matches *services.MatchService, logger *slog.Logger) *LikeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LikeHandler{matches: matches, logger: logger}
}

// Like handles POST /users/:id/like.
func (h *LikeHandler) Like(c *gin.Context) {
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.matches.Like(c.Request.Context(), middleware.UserID(c), targetID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfLike):
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "cannot like yourself")
		case errors.Is(err, postgres.ErrAlreadyLiked):
			respondError(c, http.StatusConflict, "ALREADY_LIKED", "already liked")
		default:
			h.logger.Error("failed to record like", "targetID", targetID, "error", err)
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to record like")
		}
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Unlike handles DELETE /users/:id/like.
func (h *LikeHandler) Unlike(c *gin.Context) {
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.matches.Unlike(c.Request.Context(), middleware.UserID(c), targetID); err != nil {
		h.logger.Error("failed to remove like", "targetID", targetID, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to remove like")
		return
	}
	c.Status(http.StatusNoContent)
}

// Matches handles GET /matches.
func (h *LikeHandler) Matches(c *gin.Context) {
	ids, err := h.matches.Matches(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.logger.Error("failed to list matches", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list matches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": ids})
}
