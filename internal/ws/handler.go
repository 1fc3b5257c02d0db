package ws

import (
	"net/http"

	"taskboard/internal/domain"
	"taskboard/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// SessionFunc returns the caller's session from the request context.
type SessionFunc func(c *gin.Context) *domain.Session

// HandleWS upgrades an admin's request to the activity feed. allowedOrigin may be empty.
func HandleWS(hub *Hub, allowedOrigin string, sessionOf SessionFunc) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		sess := sessionOf(c)
		if !sess.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "error", err)
			return
		}

		client := NewClient(sess.ID, conn, hub)
		go client.Run()
	}
}
