package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/shailum17/BazaarBuddy-sub000/internal/hub"
	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
	"github.com/shailum17/BazaarBuddy-sub000/internal/utils"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/log"
)

// WSHandler websocket connection handler. Browsers cannot set headers on
// websocket upgrades, so the token travels as a query parameter.
type WSHandler struct {
	h            *hub.Hub
	relay        *hub.ChatRelay
	jwtManager   *utils.JWTManager
	writeTimeout time.Duration
	pingInterval time.Duration

	upgrader websocket.Upgrader
}

// NewWSHandler creates a websocket handler
func NewWSHandler(h *hub.Hub, relay *hub.ChatRelay, jwtManager *utils.JWTManager, writeTimeout, pingInterval time.Duration) *WSHandler {
	return &WSHandler{
		h:            h,
		relay:        relay,
		jwtManager:   jwtManager,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Connect upgrades the request and joins the caller to their rooms.
// Vendors land in their personal room; suppliers additionally land in
// their storefront room where new orders arrive.
func (h *WSHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Missing token"})
		return
	}

	claims, err := h.jwtManager.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("Websocket upgrade failed: %v", err)
		return
	}

	client := hub.NewClient(h.h, conn, claims.UserID, claims.Role, h.writeTimeout, h.pingInterval)
	h.h.Join(client, hub.UserRoom(claims.UserID))
	if claims.Role == model.RoleSupplier {
		h.h.Join(client, hub.SupplierRoom(claims.UserID))
	}

	go client.WritePump()
	go client.ReadPump(h.relay)
}
