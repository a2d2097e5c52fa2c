package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"servicepulse/backend/internal/apperr"
	"servicepulse/backend/internal/changehub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Views are served from other origins during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection and streams change events to it
// until either side closes.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		h.fail(c, apperr.Unauthorized("authorization token missing"))
		return
	}
	identity, err := h.Auth.Authenticate(token)
	if err != nil {
		h.fail(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := changehub.NewWebSocketClient(h.Hub, conn, uuid.NewString(), identity)
	h.Hub.RegisterCh <- client
	client.Run()
}
