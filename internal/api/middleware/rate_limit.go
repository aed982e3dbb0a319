package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/korsetof/chatmod/internal/models"
)

// RateLimiter decides whether one more action is allowed for a user inside
// the current window.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, action string, userID uint, limit int64, window time.Duration) (bool, error)
}

// RateLimit caps how often an authenticated user may hit a route group. Must
// run after Auth. Limiter outages fail open; chat availability wins over
// strict limits.
func RateLimit(limiter RateLimiter, action string, limit int64, window time.Duration, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == 0 {
			c.Next()
			return
		}

		allowed, err := limiter.CheckRateLimit(c.Request.Context(), action, userID, limit, window)
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request", "action", action, "error", err)
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Code: "RATE_LIMITED", Message: "too many requests, slow down",
			})
			return
		}
		c.Next()
	}
}
