package ws

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/codearena/backend/internal/auth"
	"github.com/codearena/backend/internal/config"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is checked by the CORS middleware in front
	},
}

// HandleWebSocket upgrades an authenticated connection and registers it with
// the hub. Identity comes from the JWT passed as ?token=.
func HandleWebSocket(hub *Hub, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}

		claims, err := auth.ParseToken(cfg.JWTSecret, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := &Client{
			conn:     conn,
			playerID: claims.PlayerID,
			username: claims.Username,
			hub:      hub,
			send:     make(chan []byte, 256),
		}

		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}
