package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/korsetof/chatmod/internal/models"
	"github.com/korsetof/chatmod/internal/repositories/postgres"
	"github.com/korsetof/chatmod/internal/services"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	users  *services.UserService
	logger *slog.Logger
}

func NewAuthHandler(users *services.UserService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{users: users, logger: logger}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	user, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, postgres.ErrEmailTaken) {
			respondError(c, http.StatusConflict, "EMAIL_TAKEN", "email already registered")
			return
		}
		h.logger.Error("registration failed", "email", req.Email, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "registration failed")
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	resp, err := h.users.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
		case errors.Is(err, services.ErrUserBanned):
			respondError(c, http.StatusForbidden, "BANNED", "account is banned")
		default:
			h.logger.Error("login failed", "email", req.Email, "error", err)
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "login failed")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}
