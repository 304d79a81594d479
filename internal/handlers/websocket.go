package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gobikevn/bikerental-backend/internal/services"
)

// WebSocketHandler upgrades the connection and hands it to the hub. Runs
// behind AuthMiddleware so the user identity and role come from the token.
func WebSocketHandler(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		role := c.GetString("role")
		services.HandleWebSocket(hub, c.Writer, c.Request, userID, role)
	}
}
