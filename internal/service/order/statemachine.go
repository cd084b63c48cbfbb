package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/utils"
)

// Actor the authenticated party attempting an operation
type Actor struct {
	ID   uint64
	Role string
}

// IsVendor reports whether the actor holds the vendor role
func (a Actor) IsVendor() bool {
	return a.Role == model.RoleVendor
}

// IsSupplier reports whether the actor holds the supplier role
func (a Actor) IsSupplier() bool {
	return a.Role == model.RoleSupplier
}

// authorizeTransition enforces who may move an order to the target status.
// Cancellation belongs to the vendor and only while the order is still
// pending or accepted; every other transition belongs to the order's
// supplier. Called before the legality of the transition itself is checked
// so a forbidden actor never learns which transitions would be legal.
func authorizeTransition(order *model.Order, actor Actor, target model.OrderStatus) error {
	switch target {
	case model.OrderStatusCancelled:
		if !actor.IsVendor() || order.VendorID != actor.ID {
			return utils.ErrForbidden
		}
		if order.Status != model.OrderStatusPending && order.Status != model.OrderStatusAccepted {
			return utils.WrapError(nil, utils.CodeIllegalTransition,
				fmt.Sprintf("order can no longer be cancelled in status %s", order.Status))
		}
		return nil
	case model.OrderStatusAccepted, model.OrderStatusRejected,
		model.OrderStatusPreparing, model.OrderStatusInTransit, model.OrderStatusDelivered:
		if !actor.IsSupplier() || order.SupplierID != actor.ID {
			return utils.ErrForbidden
		}
		return nil
	default:
		return utils.ErrIllegalTransition
	}
}

// transitionUpdates builds the column updates for a legal transition.
// Rejection and cancellation demand a reason; acceptance stamps the
// delivery estimate and delivery stamps the actual arrival.
func transitionUpdates(target model.OrderStatus, reason string, estimatedDelivery time.Duration, now time.Time) (map[string]interface{}, error) {
	updates := map[string]interface{}{
		"status": target,
	}

	switch target {
	case model.OrderStatusAccepted:
		eta := now.Add(estimatedDelivery)
		updates["estimated_delivery_at"] = &eta
	case model.OrderStatusDelivered:
		updates["actual_delivery_at"] = &now
	case model.OrderStatusRejected, model.OrderStatusCancelled:
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return nil, utils.NewValidationError([]string{
				fmt.Sprintf("a reason is required to mark an order %s", target),
			})
		}
		updates["cancellation_reason"] = &reason
	}

	return updates, nil
}
