package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
	"github.com/shailum17/BazaarBuddy-sub000/internal/monitor"
	"github.com/shailum17/BazaarBuddy-sub000/internal/notifier"
	"github.com/shailum17/BazaarBuddy-sub000/internal/repository"
	"github.com/shailum17/BazaarBuddy-sub000/internal/service/cart"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/log"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/snowflake"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/utils"
)

const deliveryDateLayout = "2006-01-02"

// EventPublisher fan-out collaborator. Publishing is best-effort and never
// fails the operation that triggered it.
type EventPublisher interface {
	PublishToUser(userID uint64, ev model.NotificationEvent)
	PublishToSupplier(supplierID uint64, ev model.NotificationEvent)
}

// Config ordering business configuration, money in cents
type Config struct {
	FreeDeliveryThreshold int64
	FlatDeliveryFee       int64
	EstimatedDelivery     time.Duration
	OrderNoPrefix         string
}

// LineRequest one requested order line
type LineRequest struct {
	ProductID uint64 `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// CreateOrderRequest a single-supplier order request. Every line must
// belong to the named supplier.
type CreateOrderRequest struct {
	SupplierID      uint64        `json:"supplier_id" binding:"required"`
	Items           []LineRequest `json:"items" binding:"required"`
	DeliveryAddress string        `json:"delivery_address" binding:"required"`
	DeliveryDate    string        `json:"delivery_date" binding:"required"`
	DeliveryTime    *string       `json:"delivery_time,omitempty"`
	Notes           *string       `json:"notes,omitempty"`
	PaymentMethod   *string       `json:"payment_method,omitempty"`
}

// CheckoutRequest a whole-cart checkout. Lines may span suppliers; the
// service splits them into one order per supplier.
type CheckoutRequest struct {
	Items           []LineRequest `json:"items" binding:"required"`
	DeliveryAddress string        `json:"delivery_address" binding:"required"`
	DeliveryDate    string        `json:"delivery_date" binding:"required"`
	DeliveryTime    *string       `json:"delivery_time,omitempty"`
	Notes           *string       `json:"notes,omitempty"`
	PaymentMethod   *string       `json:"payment_method,omitempty"`
}

// GroupFailure one supplier group that could not be committed during a
// multi-supplier checkout
type GroupFailure struct {
	SupplierID uint64   `json:"supplier_id"`
	Reasons    []string `json:"reasons"`
}

// CheckoutResult per-group outcome of a checkout. Groups commit or fail
// independently; one failed supplier never rolls back another's order.
type CheckoutResult struct {
	Committed []*model.Order `json:"committed"`
	Failed    []GroupFailure `json:"failed"`
}

// Service order creation, lifecycle transitions and ratings
type Service interface {
	// Create one single-supplier order
	CreateOrder(ctx context.Context, actor Actor, req *CreateOrderRequest) (*model.Order, error)

	// Split a cart by supplier and create one order per group
	Checkout(ctx context.Context, actor Actor, req *CheckoutRequest) (*CheckoutResult, error)

	// Move an order to a new status
	Transition(ctx context.Context, actor Actor, orderNo string, target model.OrderStatus, reason string) (*model.Order, error)

	// Rate a delivered order, once
	AddRating(ctx context.Context, actor Actor, orderNo string, rating int, review *string) error

	// Fetch one order visible to the actor
	GetByOrderNo(ctx context.Context, actor Actor, orderNo string) (*model.Order, error)

	// List the actor's orders
	ListOrders(ctx context.Context, actor Actor, page, pageSize int) ([]*model.Order, int64, error)
}

type service struct {
	cfg         Config
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	idgen       *snowflake.Generator
	publisher   EventPublisher
	notifier    notifier.Notifier
}

// NewService creates the order service
func NewService(
	cfg Config,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	idgen *snowflake.Generator,
	publisher EventPublisher,
	n notifier.Notifier,
) Service {
	return &service{
		cfg:         cfg,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		idgen:       idgen,
		publisher:   publisher,
		notifier:    n,
	}
}

// validateDelivery checks the shared delivery fields, accumulating every
// violation instead of stopping at the first
func validateDelivery(v *utils.ValidationCollector, address, date string, now time.Time) time.Time {
	if address == "" {
		v.Addf("delivery_address is required")
	}

	var deliveryDate time.Time
	if date == "" {
		v.Addf("delivery_date is required")
	} else {
		parsed, err := time.Parse(deliveryDateLayout, date)
		if err != nil {
			v.Addf("delivery_date must be formatted as %s", deliveryDateLayout)
		} else if y, m, d := now.Date(); parsed.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
			// compare calendar dates; parsed is midnight UTC, so the
			// boundary must be built from date components rather than a
			// wall-clock truncation that shifts with the server zone
			v.Addf("delivery_date cannot be in the past")
		} else {
			deliveryDate = parsed
		}
	}
	return deliveryDate
}

func validateLines(v *utils.ValidationCollector, items []LineRequest) {
	if len(items) == 0 {
		v.Addf("at least one item is required")
		return
	}
	for i, line := range items {
		if line.ProductID == 0 {
			v.Addf("items[%d].product_id is required", i)
		}
		if line.Quantity <= 0 {
			v.Addf("items[%d].quantity must be positive", i)
		}
	}
}

// CreateOrder creates one order for one supplier. Stock is reserved line
// by line with conditional decrements; any failure releases every line
// already reserved before the error is returned.
func (s *service) CreateOrder(ctx context.Context, actor Actor, req *CreateOrderRequest) (*model.Order, error) {
	if !actor.IsVendor() {
		return nil, utils.ErrForbidden
	}

	var v utils.ValidationCollector
	if req.SupplierID == 0 {
		v.Addf("supplier_id is required")
	}
	validateLines(&v, req.Items)
	deliveryDate := validateDelivery(&v, req.DeliveryAddress, req.DeliveryDate, time.Now())
	if err := v.Err(); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetSupplier(ctx, req.SupplierID); err != nil {
		return nil, err
	}

	lines, err := s.loadProducts(ctx, req.SupplierID, req.Items)
	if err != nil {
		return nil, err
	}

	order, err := s.commitGroup(ctx, actor, req, lines, deliveryDate)
	if err != nil {
		monitor.Get().OrderCreatedTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	monitor.Get().OrderCreatedTotal.WithLabelValues("success").Inc()
	s.announceCreated(ctx, order)
	return order, nil
}

// Checkout splits a mixed-supplier cart and creates the orders group by
// group. Groups are independent: a stock conflict in one supplier's group
// fails that group alone and the rest still commit.
func (s *service) Checkout(ctx context.Context, actor Actor, req *CheckoutRequest) (*CheckoutResult, error) {
	if !actor.IsVendor() {
		return nil, utils.ErrForbidden
	}

	var v utils.ValidationCollector
	validateLines(&v, req.Items)
	deliveryDate := validateDelivery(&v, req.DeliveryAddress, req.DeliveryDate, time.Now())
	if err := v.Err(); err != nil {
		return nil, err
	}

	c := cart.New(cart.Config{
		FreeDeliveryThreshold: s.cfg.FreeDeliveryThreshold,
		FlatDeliveryFee:       s.cfg.FlatDeliveryFee,
	})
	productByID := make(map[uint64]*model.Product, len(req.Items))
	for i, line := range req.Items {
		p, err := s.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, utils.ErrProductNotFound) {
				v.Addf("items[%d]: product %d not found", i, line.ProductID)
				continue
			}
			return nil, err
		}
		productByID[p.ID] = p
		if err := c.AddItem(p, line.Quantity); err != nil {
			v.Addf("items[%d]: %v", i, err)
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	result := &CheckoutResult{}
	for _, group := range c.SplitBySupplier() {
		// same precondition as the single-group path: the group's
		// supplier must exist and hold the supplier role
		if _, err := s.userRepo.GetSupplier(ctx, group.SupplierID); err != nil {
			monitor.Get().OrderCreatedTotal.WithLabelValues("failure").Inc()
			result.Failed = append(result.Failed, GroupFailure{
				SupplierID: group.SupplierID,
				Reasons:    failureReasons(err),
			})
			log.WithFields(map[string]interface{}{
				"vendor_id":   actor.ID,
				"supplier_id": group.SupplierID,
				"error":       err.Error(),
			}).Warn("Checkout group failed")
			continue
		}

		groupReq := &CreateOrderRequest{
			SupplierID:      group.SupplierID,
			DeliveryAddress: req.DeliveryAddress,
			DeliveryDate:    req.DeliveryDate,
			DeliveryTime:    req.DeliveryTime,
			Notes:           req.Notes,
			PaymentMethod:   req.PaymentMethod,
		}
		lines := make([]orderLine, 0, len(group.Items))
		for _, item := range group.Items {
			groupReq.Items = append(groupReq.Items, LineRequest{ProductID: item.ProductID, Quantity: item.Quantity})
			lines = append(lines, orderLine{product: productByID[item.ProductID], quantity: item.Quantity})
		}

		order, err := s.commitGroup(ctx, actor, groupReq, lines, deliveryDate)
		if err != nil {
			monitor.Get().OrderCreatedTotal.WithLabelValues("failure").Inc()
			result.Failed = append(result.Failed, GroupFailure{
				SupplierID: group.SupplierID,
				Reasons:    failureReasons(err),
			})
			log.WithFields(map[string]interface{}{
				"vendor_id":   actor.ID,
				"supplier_id": group.SupplierID,
				"error":       err.Error(),
			}).Warn("Checkout group failed")
			continue
		}

		monitor.Get().OrderCreatedTotal.WithLabelValues("success").Inc()
		result.Committed = append(result.Committed, order)
		s.announceCreated(ctx, order)
	}

	return result, nil
}

type orderLine struct {
	product  *model.Product
	quantity int
}

// loadProducts resolves every requested line against the catalog and
// verifies each product actually belongs to the requested supplier
func (s *service) loadProducts(ctx context.Context, supplierID uint64, items []LineRequest) ([]orderLine, error) {
	var v utils.ValidationCollector
	lines := make([]orderLine, 0, len(items))
	for i, line := range items {
		p, err := s.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, utils.ErrProductNotFound) {
				v.Addf("items[%d]: product %d not found", i, line.ProductID)
				continue
			}
			return nil, err
		}
		if p.SupplierID != supplierID {
			v.Addf("items[%d]: product %d does not belong to supplier %d", i, line.ProductID, supplierID)
			continue
		}
		lines = append(lines, orderLine{product: p, quantity: line.Quantity})
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// commitGroup reserves stock for every line of one supplier group and
// writes the order. Prices, names and totals are frozen here; the live
// product never affects this order again.
func (s *service) commitGroup(ctx context.Context, actor Actor, req *CreateOrderRequest, lines []orderLine, deliveryDate time.Time) (*model.Order, error) {
	reserved := make([]orderLine, 0, len(lines))
	for _, line := range lines {
		if err := s.productRepo.ReserveStock(ctx, line.product.ID, line.quantity); err != nil {
			s.rollbackReservations(context.WithoutCancel(ctx), reserved)
			if errors.Is(err, utils.ErrStockConflict) {
				monitor.Get().StockConflictTotal.Inc()
				return nil, utils.WrapError(err, utils.CodeConflict,
					fmt.Sprintf("insufficient stock for product %d", line.product.ID))
			}
			return nil, err
		}
		reserved = append(reserved, line)
	}

	c := cart.New(cart.Config{
		FreeDeliveryThreshold: s.cfg.FreeDeliveryThreshold,
		FlatDeliveryFee:       s.cfg.FlatDeliveryFee,
	})
	items := make([]model.OrderItem, 0, len(lines))
	for _, line := range lines {
		if err := c.AddItem(line.product, line.quantity); err != nil {
			s.rollbackReservations(context.WithoutCancel(ctx), reserved)
			return nil, utils.WrapError(err, utils.CodeInvalidParam, "invalid order line")
		}
		items = append(items, model.OrderItem{
			ProductID:   line.product.ID,
			ProductName: line.product.Name,
			UnitPrice:   line.product.Price,
			Quantity:    line.quantity,
			LineTotal:   line.product.Price * int64(line.quantity),
		})
	}

	order := &model.Order{
		OrderNo:         s.idgen.NextOrderNo(s.cfg.OrderNoPrefix),
		VendorID:        actor.ID,
		SupplierID:      req.SupplierID,
		Subtotal:        c.Subtotal(),
		DeliveryFee:     c.DeliveryFee(),
		Total:           c.Total(),
		Status:          model.OrderStatusPending,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    deliveryDate,
		DeliveryTime:    req.DeliveryTime,
		Notes:           req.Notes,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   model.PaymentStatusUnpaid,
		Items:           items,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.rollbackReservations(context.WithoutCancel(ctx), reserved)
		return nil, err
	}
	return order, nil
}

// rollbackReservations compensates reserved stock after a failed order.
// Runs on a context detached from the caller's cancellation so a timed-out
// request never leaks a reservation; release failures are logged loudly
// since they demand manual reconciliation.
func (s *service) rollbackReservations(ctx context.Context, reserved []orderLine) {
	for _, line := range reserved {
		if err := s.productRepo.ReleaseStock(ctx, line.product.ID, line.quantity); err != nil {
			log.WithFields(map[string]interface{}{
				"product_id": line.product.ID,
				"quantity":   line.quantity,
				"error":      err.Error(),
			}).Error("Failed to release reserved stock, manual reconciliation required")
			continue
		}
		monitor.Get().StockRollbackTotal.Inc()
	}
}

// announceCreated fans the new order out to both parties and dispatches
// offline notifications. All of it is best-effort.
func (s *service) announceCreated(ctx context.Context, order *model.Order) {
	s.publisher.PublishToSupplier(order.SupplierID,
		model.NewNotificationEvent(model.EventNewOrderReceived, order.OrderNo, order))
	s.publisher.PublishToUser(order.VendorID,
		model.NewNotificationEvent(model.EventOrderConfirmed, order.OrderNo, order))

	s.notifyParties(ctx, order, func(recipient *model.User) error {
		return s.notifier.NotifyOrderCreated(ctx, order, recipient)
	})
}

func (s *service) notifyParties(ctx context.Context, order *model.Order, send func(*model.User) error) {
	for _, id := range []uint64{order.VendorID, order.SupplierID} {
		recipient, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			log.Warnf("Skipping notification for unknown user %d on order %s", id, order.OrderNo)
			continue
		}
		if err := send(recipient); err != nil {
			log.WithFields(map[string]interface{}{
				"order_no":  order.OrderNo,
				"recipient": id,
				"error":     err.Error(),
			}).Warn("Notification dispatch failed")
		}
	}
}

// Transition moves an order along its lifecycle. Authorization is checked
// before legality, legality against the transition table, and the status
// plus its side fields land in a single write.
func (s *service) Transition(ctx context.Context, actor Actor, orderNo string, target model.OrderStatus, reason string) (*model.Order, error) {
	if !target.IsValid() {
		return nil, utils.NewValidationError([]string{fmt.Sprintf("unknown status %q", target)})
	}

	order, err := s.orderRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}

	if err := authorizeTransition(order, actor, target); err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, utils.WrapError(nil, utils.CodeIllegalTransition,
			fmt.Sprintf("cannot transition order from %s to %s", order.Status, target))
	}

	now := time.Now()
	updates, err := transitionUpdates(target, reason, s.cfg.EstimatedDelivery, now)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateStatusFields(ctx, order.ID, updates); err != nil {
		return nil, err
	}
	monitor.Get().TransitionTotal.WithLabelValues(string(target)).Inc()

	order.Status = target
	if eta, ok := updates["estimated_delivery_at"].(*time.Time); ok {
		order.EstimatedDeliveryAt = eta
	}
	if at, ok := updates["actual_delivery_at"].(*time.Time); ok {
		order.ActualDeliveryAt = at
	}
	if r, ok := updates["cancellation_reason"].(*string); ok {
		order.CancellationReason = r
	}

	ev := model.NewNotificationEvent(model.EventOrderUpdated, order.OrderNo, order)
	s.publisher.PublishToUser(order.VendorID, ev)
	s.publisher.PublishToSupplier(order.SupplierID, ev)
	if target == model.OrderStatusAccepted {
		s.publisher.PublishToUser(order.VendorID,
			model.NewNotificationEvent(model.EventOrderConfirmed, order.OrderNo, order))
	}

	s.notifyParties(ctx, order, func(recipient *model.User) error {
		return s.notifier.NotifyStatusChanged(ctx, order, recipient, target)
	})

	return order, nil
}

// AddRating records a vendor's one-time rating of a delivered order. The
// write is conditional in the repository, so two concurrent attempts can
// never both succeed.
func (s *service) AddRating(ctx context.Context, actor Actor, orderNo string, rating int, review *string) error {
	if rating < 1 || rating > 5 {
		return utils.NewValidationError([]string{"rating must be between 1 and 5"})
	}

	order, err := s.orderRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return err
	}
	if !actor.IsVendor() || order.VendorID != actor.ID {
		return utils.ErrForbidden
	}
	if !order.IsDelivered() {
		return utils.ErrNotRatable
	}
	if order.IsRated() {
		return utils.ErrRatingExists
	}

	return s.orderRepo.SetRating(ctx, order.ID, rating, review)
}

// GetByOrderNo fetches one order. Non-parties get not-found rather than
// forbidden so order numbers leak nothing.
func (s *service) GetByOrderNo(ctx context.Context, actor Actor, orderNo string) (*model.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if order.VendorID != actor.ID && order.SupplierID != actor.ID {
		return nil, utils.ErrOrderNotFound
	}
	return order, nil
}

// ListOrders lists the actor's side of the marketplace: placed orders for
// vendors, incoming orders for suppliers
func (s *service) ListOrders(ctx context.Context, actor Actor, page, pageSize int) ([]*model.Order, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	if actor.IsSupplier() {
		return s.orderRepo.ListBySupplier(ctx, actor.ID, page, pageSize)
	}
	return s.orderRepo.ListByVendor(ctx, actor.ID, page, pageSize)
}

// failureReasons flattens an error into the reason list reported per
// failed checkout group
func failureReasons(err error) []string {
	if appErr, ok := utils.IsAppError(err); ok {
		if len(appErr.Details) > 0 {
			return appErr.Details
		}
		return []string{appErr.Message}
	}
	return []string{err.Error()}
}
