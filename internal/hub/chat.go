package hub

import (
	"fmt"
	"strings"
	"time"

	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
)

// InboundMessage the chat frame a connected client sends
type InboundMessage struct {
	OrderNo      string `json:"orderId"`
	Body         string `json:"body"`
	ReceiverID   uint64 `json:"receiverId"`
	ReceiverRole string `json:"receiverRole"`
}

// ChatRelay order-scoped chat between the two parties of an order.
// Messages flow straight through the fan-out hub with no persistence, no
// delivery receipt and no replay: a participant connecting after a message
// was sent never sees it.
type ChatRelay struct {
	hub *Hub
}

// NewChatRelay creates a chat relay on top of the hub
func NewChatRelay(h *Hub) *ChatRelay {
	return &ChatRelay{hub: h}
}

// SendMessage publishes a chat event into the receiver's room: the user
// room for vendors, the supplier room for suppliers.
func (r *ChatRelay) SendMessage(orderNo, body string, senderID uint64, senderRole string, receiverID uint64, receiverRole string) error {
	if strings.TrimSpace(orderNo) == "" {
		return fmt.Errorf("chat message has no order reference")
	}
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("chat message body is empty")
	}
	if receiverID == 0 {
		return fmt.Errorf("chat message has no receiver")
	}

	msg := model.ChatMessage{
		OrderNo:    orderNo,
		SenderID:   senderID,
		SenderRole: senderRole,
		Body:       body,
		Timestamp:  time.Now().UnixMilli(),
	}

	room := UserRoom(receiverID)
	if receiverRole == model.RoleSupplier {
		room = SupplierRoom(receiverID)
	}

	r.hub.Publish(room, model.NewNotificationEvent(model.EventNewMessage, orderNo, msg))
	return nil
}
