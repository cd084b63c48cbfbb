package model

import (
	"time"
)

// EventType fan-out event type tag
type EventType string

// Fan-out event types delivered to connected clients
const (
	EventNewOrderReceived EventType = "new-order-received"
	EventOrderConfirmed   EventType = "order-confirmed"
	EventOrderUpdated     EventType = "order-updated"
	EventNewMessage       EventType = "new-message"
)

// NotificationEvent transient fan-out payload. Never persisted; delivery is
// at-most-once to currently connected room members, with no replay for
// clients that reconnect later.
type NotificationEvent struct {
	Type      EventType   `json:"type"`
	OrderNo   string      `json:"orderId"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// NewNotificationEvent creates an event stamped with the current time
func NewNotificationEvent(t EventType, orderNo string, payload interface{}) NotificationEvent {
	return NotificationEvent{
		Type:      t,
		OrderNo:   orderNo,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
}

// ChatMessage transient order-scoped chat payload. Lives only inside the
// fan-out pipeline for the duration of a connection; a participant joining
// later sees nothing prior.
type ChatMessage struct {
	OrderNo    string `json:"orderId"`
	SenderID   uint64 `json:"senderId"`
	SenderRole string `json:"senderRole"`
	Body       string `json:"body"`
	Timestamp  int64  `json:"timestamp"`
}
