package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/korsetof/chatmod/internal/relay"
)

// WebSocketHandler hands /ws upgrades to the relay hub. Authentication
// happens in-band over the socket, not via the HTTP middleware.
type WebSocketHandler struct {
	hub *relay.Hub
}

func NewWebSocketHandler(hub *relay.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// Serve handles GET /ws.
func (h *WebSocketHandler) Serve(c *gin.Context) {
	relay.ServeWS(h.hub, c.Writer, c.Request)
}
