package handlers

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rosenblum-buero/backoffice_be/internal/realtime"
	"github.com/rosenblum-buero/backoffice_be/internal/utils"
)

type WSHandler struct {
	Hub       *realtime.Hub
	JWTSecret string
	Log       *zap.Logger
}

// Handle authenticates the connection via the token query parameter and
// keeps it registered on the hub until the client goes away.
func (h *WSHandler) Handle(c *websocket.Conn) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.Close()
		return
	}

	claims, err := utils.ParseToken(h.JWTSecret, tokenStr, utils.TokenAccess)
	if err != nil {
		h.Log.Debug("websocket auth failed", zap.Error(err))
		c.Close()
		return
	}

	userUUID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.Close()
		return
	}

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userUUID,
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer h.Hub.UnregisterClient(client)

	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	// drain client frames to keep the connection alive
	for {
		var payload map[string]interface{}
		if err := c.ReadJSON(&payload); err != nil {
			break
		}
		if t, ok := payload["type"].(string); ok && t == "pong" {
			continue
		}
	}
}
