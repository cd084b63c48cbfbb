package notifier

import (
	"context"
	"fmt"

	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/log"
)

// Notifier outbound message collaborator. Delivery is fire-and-forget:
// callers log failures and never roll back the operation that triggered
// the notification.
type Notifier interface {
	// Notify a party that an order was created
	NotifyOrderCreated(ctx context.Context, order *model.Order, recipient *model.User) error

	// Notify a party that an order changed status
	NotifyStatusChanged(ctx context.Context, order *model.Order, recipient *model.User, status model.OrderStatus) error
}

// EmailNotifier email channel. The actual SMTP/provider integration lives
// outside this service; this adapter prepares and hands off the message.
type EmailNotifier struct{}

// NewEmailNotifier creates an email notifier
func NewEmailNotifier() *EmailNotifier {
	return &EmailNotifier{}
}

// NotifyOrderCreated sends an order confirmation email
func (n *EmailNotifier) NotifyOrderCreated(ctx context.Context, order *model.Order, recipient *model.User) error {
	if recipient.Email == nil || *recipient.Email == "" {
		return fmt.Errorf("recipient %d has no email address", recipient.ID)
	}
	log.WithFields(map[string]interface{}{
		"channel":  "email",
		"to":       *recipient.Email,
		"order_no": order.OrderNo,
	}).Debug("Dispatching order created message")
	return nil
}

// NotifyStatusChanged sends a status update email
func (n *EmailNotifier) NotifyStatusChanged(ctx context.Context, order *model.Order, recipient *model.User, status model.OrderStatus) error {
	if recipient.Email == nil || *recipient.Email == "" {
		return fmt.Errorf("recipient %d has no email address", recipient.ID)
	}
	log.WithFields(map[string]interface{}{
		"channel":  "email",
		"to":       *recipient.Email,
		"order_no": order.OrderNo,
		"status":   status,
	}).Debug("Dispatching status changed message")
	return nil
}

// SMSNotifier SMS/WhatsApp channel adapter
type SMSNotifier struct{}

// NewSMSNotifier creates an SMS notifier
func NewSMSNotifier() *SMSNotifier {
	return &SMSNotifier{}
}

// NotifyOrderCreated sends an order confirmation text
func (n *SMSNotifier) NotifyOrderCreated(ctx context.Context, order *model.Order, recipient *model.User) error {
	if recipient.Phone == "" {
		return fmt.Errorf("recipient %d has no phone number", recipient.ID)
	}
	log.WithFields(map[string]interface{}{
		"channel":  "sms",
		"to":       recipient.Phone,
		"order_no": order.OrderNo,
	}).Debug("Dispatching order created message")
	return nil
}

// NotifyStatusChanged sends a status update text
func (n *SMSNotifier) NotifyStatusChanged(ctx context.Context, order *model.Order, recipient *model.User, status model.OrderStatus) error {
	if recipient.Phone == "" {
		return fmt.Errorf("recipient %d has no phone number", recipient.ID)
	}
	log.WithFields(map[string]interface{}{
		"channel":  "sms",
		"to":       recipient.Phone,
		"order_no": order.OrderNo,
		"status":   status,
	}).Debug("Dispatching status changed message")
	return nil
}

// MultiNotifier fans a notification out to every channel. Individual
// channel failures are logged and swallowed so one broken channel never
// blocks the others or the caller.
type MultiNotifier struct {
	channels []Notifier
}

// NewMultiNotifier creates a multi-channel notifier
func NewMultiNotifier(channels ...Notifier) *MultiNotifier {
	return &MultiNotifier{channels: channels}
}

// NotifyOrderCreated dispatches on every channel
func (n *MultiNotifier) NotifyOrderCreated(ctx context.Context, order *model.Order, recipient *model.User) error {
	for _, ch := range n.channels {
		if err := ch.NotifyOrderCreated(ctx, order, recipient); err != nil {
			log.WithFields(map[string]interface{}{
				"order_no":  order.OrderNo,
				"recipient": recipient.ID,
				"error":     err.Error(),
			}).Warn("Notifier channel failed")
		}
	}
	return nil
}

// NotifyStatusChanged dispatches on every channel
func (n *MultiNotifier) NotifyStatusChanged(ctx context.Context, order *model.Order, recipient *model.User, status model.OrderStatus) error {
	for _, ch := range n.channels {
		if err := ch.NotifyStatusChanged(ctx, order, recipient, status); err != nil {
			log.WithFields(map[string]interface{}{
				"order_no":  order.OrderNo,
				"recipient": recipient.ID,
				"status":    status,
				"error":     err.Error(),
			}).Warn("Notifier channel failed")
		}
	}
	return nil
}
