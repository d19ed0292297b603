package websocket

import (
	"net/http"
	"strings"

	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/middleware"
	"tronik-dashboard/pkg/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades HTTP connection to WebSocket. Browsers cannot set
// headers on the handshake, so the token may come in the query string.
func HandleWebSocket(hub *Hub, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			tokenString = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if tokenString == "" {
			utils.Error(w, http.StatusUnauthorized, "Autenticação necessária")
			return
		}

		userClaims, err := middleware.ParseToken(jwtSecret, tokenString)
		if err != nil {
			logger.Debug("❌ Invalid token on WebSocket handshake", zap.Error(err))
			utils.Error(w, http.StatusUnauthorized, "Token inválido ou expirado")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("❌ WebSocket upgrade failed", zap.Error(err))
			return
		}

		client := NewClient(userClaims.UserID, userClaims.Role, conn, hub)
		if !hub.Register(client) {
			logger.Warn("WebSocket hub stopped, dropping connection", zap.String("user_id", client.UserID))
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
