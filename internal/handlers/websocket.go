package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shutterhub/shutterhub-backend/internal/services"
)

// WebSocketHandler upgrades the connection and registers the client with the
// hub. Auth middleware has already set userId and userType from the token.
func WebSocketHandler(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		userType := c.GetString("userType")

		services.HandleWebSocket(hub, c.Writer, c.Request, userID, userType)
	}
}
