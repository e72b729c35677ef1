package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/taskdesk/taskdesk/internal/middleware"
	"github.com/taskdesk/taskdesk/internal/realtime"
	"go.uber.org/zap"
)

// RealtimeHandler upgrades authenticated clients to a WebSocket session
// on the change-notification hub. The token rides in the "token" query
// parameter; browsers can't set headers on a WebSocket handshake.
type RealtimeHandler struct {
	hub    *realtime.Hub
	logger *zap.Logger

	upgrader websocket.Upgrader
}

func NewRealtimeHandler(hub *realtime.Hub, logger *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The JWT already authenticated the caller; cross-origin
			// pages holding a valid token are allowed to connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve handles GET /v1/realtime.
func (h *RealtimeHandler) Serve(c *gin.Context) {
	userID := middleware.GetUserID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := h.hub.NewClient(userID, conn)
	go client.WriteLoop()
	go client.ReadLoop(h.logger)
}
