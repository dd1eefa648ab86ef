package web

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/brandon-relentnet/vector-tasks/internal/notify"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards connect from other origins; access control is handled
	// upstream.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWS upgrades the connection and registers it as a change observer.
// The client owns its own lifecycle from here: it unregisters itself when
// the peer goes away.
func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("web: websocket upgrade failed: %v", err)
		return
	}
	notify.NewClient(conn, s.notifier)
}
