package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
	"github.com/shailum17/BazaarBuddy-sub000/internal/monitor"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/log"
)

const (
	maxMessageSize = 4096
	pongWait       = 60 * time.Second
)

// Client one websocket connection with a verified identity. The identity
// was validated at connect time; the hub trusts it and never re-verifies
// credentials.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan model.NotificationEvent

	UserID uint64
	Role   string

	// rooms this client is a member of, guarded by hub.mu
	rooms map[string]struct{}

	writeTimeout time.Duration
	pingInterval time.Duration
	closeOnce    sync.Once
}

// NewClient creates a client for an upgraded connection
func NewClient(h *Hub, conn *websocket.Conn, userID uint64, role string, writeTimeout, pingInterval time.Duration) *Client {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Client{
		hub:          h,
		conn:         conn,
		send:         make(chan model.NotificationEvent, h.sendBuffer),
		UserID:       userID,
		Role:         role,
		rooms:        make(map[string]struct{}),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
	}
}

// close shuts the send queue exactly once
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// WritePump drains the send queue onto the connection. Runs as one
// goroutine per connection; exits when the queue closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteJSON(ev); err != nil {
				log.WithFields(map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				}).Debug("Websocket write failed")
				c.hub.Disconnect(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.Disconnect(c)
				return
			}
		}
	}
}

// ReadPump consumes inbound frames. The only inbound traffic is chat;
// malformed frames are logged and dropped. Exits on read error, cleaning
// up all room memberships.
func (c *Client) ReadPump(relay *ChatRelay) {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close()
		monitor.Get().WebsocketSessions.Dec()
	}()

	monitor.Get().WebsocketSessions.Inc()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var inbound InboundMessage
		if err := c.conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithFields(map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				}).Debug("Websocket read failed")
			}
			return
		}

		if err := relay.SendMessage(inbound.OrderNo, inbound.Body, c.UserID, c.Role, inbound.ReceiverID, inbound.ReceiverRole); err != nil {
			log.WithFields(map[string]interface{}{
				"user_id": c.UserID,
				"error":   err.Error(),
			}).Warn("Dropping malformed chat message")
		}
	}
}
