package model

import (
	"time"
)

// OrderStatus order lifecycle status
type OrderStatus string

// Order statuses
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusInTransit OrderStatus = "in-transit"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// statusTransitions is the complete transition table. Anything absent here
// is an illegal transition.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusAccepted, OrderStatusRejected, OrderStatusCancelled},
	OrderStatusAccepted:  {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusInTransit, OrderStatusCancelled},
	OrderStatusInTransit: {OrderStatusDelivered},
}

// CanTransitionTo reports whether next is a legal successor of s
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// IsValid reports whether s is a known status
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusAccepted, OrderStatusRejected,
		OrderStatusPreparing, OrderStatusInTransit, OrderStatusDelivered,
		OrderStatusCancelled:
		return true
	}
	return false
}

// Payment statuses. Recorded only; no gateway integration.
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// Order one per (vendor, supplier, checkout event). Line items, prices and
// totals are frozen at creation; the live product no longer affects them.
type Order struct {
	ID                  uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo             string      `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_no"`
	VendorID            uint64      `gorm:"type:bigint unsigned;not null;index" json:"vendor_id"`
	SupplierID          uint64      `gorm:"type:bigint unsigned;not null;index" json:"supplier_id"`
	Subtotal            int64       `gorm:"type:bigint;not null" json:"subtotal"`     // cents
	DeliveryFee         int64       `gorm:"type:bigint;not null" json:"delivery_fee"` // cents
	Total               int64       `gorm:"type:bigint;not null" json:"total"`        // cents
	Status              OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	DeliveryAddress     string      `gorm:"type:varchar(500);not null" json:"delivery_address"`
	DeliveryDate        time.Time   `gorm:"type:date;not null" json:"delivery_date"`
	DeliveryTime        *string     `gorm:"type:varchar(20)" json:"delivery_time,omitempty"`
	Notes               *string     `gorm:"type:varchar(500)" json:"notes,omitempty"`
	PaymentMethod       *string     `gorm:"type:varchar(20)" json:"payment_method,omitempty"`
	PaymentStatus       string      `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`
	EstimatedDeliveryAt *time.Time  `gorm:"type:timestamp" json:"estimated_delivery_at,omitempty"`
	ActualDeliveryAt    *time.Time  `gorm:"type:timestamp" json:"actual_delivery_at,omitempty"`
	Rating              *int        `gorm:"type:int" json:"rating,omitempty"`
	Review              *string     `gorm:"type:varchar(500)" json:"review,omitempty"`
	RatedAt             *time.Time  `gorm:"type:timestamp" json:"rated_at,omitempty"`
	CancellationReason  *string     `gorm:"type:varchar(255)" json:"cancellation_reason,omitempty"`
	CreatedAt           time.Time   `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt           time.Time   `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`

	Vendor   *User       `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	Supplier *User       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Items    []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// TableName set name
func (Order) TableName() string {
	return "orders"
}

// OrderItem immutable snapshot of one order line. UnitPrice is captured at
// order time and never recomputed from the live product.
type OrderItem struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     uint64    `gorm:"type:bigint unsigned;not null;index" json:"order_id"`
	OrderNo     string    `gorm:"type:varchar(32);not null;index" json:"order_no"`
	ProductID   uint64    `gorm:"type:bigint unsigned;not null;index" json:"product_id"`
	ProductName string    `gorm:"type:varchar(200);not null" json:"product_name"`
	UnitPrice   int64     `gorm:"type:bigint;not null" json:"unit_price"` // cents
	Quantity    int       `gorm:"type:int;not null" json:"quantity"`
	LineTotal   int64     `gorm:"type:bigint;not null" json:"line_total"` // cents
	CreatedAt   time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName set name
func (OrderItem) TableName() string {
	return "order_items"
}

// IsPending check order is pending
func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// IsDelivered check order is delivered
func (o *Order) IsDelivered() bool {
	return o.Status == OrderStatusDelivered
}

// IsRated check order already carries a rating
func (o *Order) IsRated() bool {
	return o.Rating != nil
}

// GetTotalDisplay get total in major units
func (o *Order) GetTotalDisplay() float64 {
	return float64(o.Total) / 100
}
