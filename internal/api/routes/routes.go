package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/korsetof/chatmod/internal/api/handlers"
	"github.com/korsetof/chatmod/internal/api/middleware"
	"github.com/korsetof/chatmod/internal/relay"
)

// Router bundles everything the HTTP surface needs.
type Router struct {
	Auth      *handlers.AuthHandler
	Users     *handlers.UserHandler
	Rooms     *handlers.RoomHandler
	Messages  *handlers.MessageHandler
	Likes     *handlers.LikeHandler
	Media     *handlers.MediaHandler // nil when object storage is not configured
	Admin     *handlers.AdminHandler
	WebSocket *handlers.WebSocketHandler

	Hub            *relay.Hub
	JWTSecret      string
	AllowedOrigins []string
	RateLimiter    middleware.RateLimiter // nil disables rate limiting
	Logger         *slog.Logger
}

// Setup builds the gin engine with all routes and middleware attached.
func (r *Router) Setup() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(r.Logger))
	engine.Use(middleware.CORS(r.AllowedOrigins))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"users":    r.Hub.Registry().UserCount(),
			"sessions": r.Hub.Registry().SessionCount(),
		})
	})

	// Socket auth happens in-band; no bearer token needed to connect.
	engine.GET("/ws", r.WebSocket.Serve)

	v1 := engine.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", r.Auth.Register)
		auth.POST("/login", r.Auth.Login)
	}

	authed := v1.Group("")
	authed.Use(middleware.Auth(r.JWTSecret))

	users := authed.Group("/users")
	{
		users.GET("", r.Users.Search)
		users.GET("/me", r.Users.Me)
		users.PATCH("/me", r.Users.UpdateMe)
		users.GET("/:id", r.Users.Get)
		users.GET("/:id/presence", r.Users.Presence)
		users.POST("/:id/like", r.Likes.Like)
		users.DELETE("/:id/like", r.Likes.Unlike)
	}
	authed.GET("/matches", r.Likes.Matches)

	rooms := authed.Group("/rooms")
	{
		rooms.POST("", r.Rooms.Create)
		rooms.GET("", r.Rooms.List)
		rooms.GET("/:id", r.Rooms.Get)
		rooms.PATCH("/:id", r.Rooms.Update)
		rooms.DELETE("/:id", r.Rooms.Delete)
		rooms.POST("/:id/join", r.Rooms.Join)
		rooms.POST("/:id/leave", r.Rooms.Leave)
		rooms.GET("/:id/messages", r.Messages.RoomHistory)
	}

	messages := authed.Group("/messages")
	if r.RateLimiter != nil {
		messages.Use(middleware.RateLimit(r.RateLimiter, "send_message", 30, time.Minute, r.Logger))
	}
	{
		messages.POST("", r.Messages.Send)
		messages.GET("/unread", r.Messages.Unread)
		messages.GET("/direct/:id", r.Messages.Conversation)
		messages.POST("/direct/:id/read", r.Messages.MarkRead)
	}

	if r.Media != nil {
		authed.POST("/media", r.Media.Upload)
	}

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/users", r.Admin.ListUsers)
		admin.POST("/users/:id/ban", r.Admin.Ban)
		admin.DELETE("/users/:id/ban", r.Admin.Unban)
	}

	return engine
}
