package api

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"cogniverse/internal/auth"
	"cogniverse/internal/config"
	"cogniverse/internal/llm"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocket connection wrapper with mutex for thread-safe writes
type safeWSConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *safeWSConn) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *safeWSConn) ReadJSON(v interface{}) error {
	return s.conn.ReadJSON(v)
}

func (s *safeWSConn) Close() error {
	return s.conn.Close()
}

// WSCoachHandler is the socket variant of the coach chat: the client sends
// CoachRequest frames and receives one CoachReply frame per message, with the
// same fallback behavior as the HTTP endpoint.
func WSCoachHandler(cfg *config.Config) gin.HandlerFunc {
	client := llm.NewClient(cfg)

	return func(c *gin.Context) {
		ident, ok := auth.IdentityFromContext(c)
		if !ok {
			errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "No identity")
			return
		}

		rawConn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("WebSocket upgrade failed:", err)
			return
		}
		conn := &safeWSConn{conn: rawConn}
		defer conn.Close()

		for {
			var req CoachRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if req.Message == "" {
				conn.WriteJSON(gin.H{"error": gin.H{"code": "INVALID_REQUEST", "message": "Empty message"}})
				continue
			}

			reply := generateCoachReply(c.Request.Context(), client, ident, req)
			if err := conn.WriteJSON(reply); err != nil {
				return
			}
		}
	}
}
