package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/utils"
)

// OrderRepository order repository interface
type OrderRepository interface {
	// Create order with its item snapshots
	Create(ctx context.Context, order *model.Order) error

	// Get order by ID
	GetByID(ctx context.Context, id uint64) (*model.Order, error)

	// Get order by order number
	GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error)

	// Apply a status transition's field updates in one write
	UpdateStatusFields(ctx context.Context, id uint64, updates map[string]interface{}) error

	// Set rating exactly once on a delivered order
	SetRating(ctx context.Context, id uint64, rating int, review *string) error

	// List orders placed by a vendor
	ListByVendor(ctx context.Context, vendorID uint64, page, pageSize int) ([]*model.Order, int64, error)

	// List orders received by a supplier
	ListBySupplier(ctx context.Context, supplierID uint64, page, pageSize int) ([]*model.Order, int64, error)
}

// orderRepository order repository implementation
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates an order repository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create creates an order and its item snapshots in one transaction.
// A duplicate order number is rejected by the unique index and surfaced as
// a retryable conflict.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := order.Items
		order.Items = nil

		if err := tx.Create(order).Error; err != nil {
			return err
		}

		if len(items) > 0 {
			for i := range items {
				items[i].OrderID = order.ID
				items[i].OrderNo = order.OrderNo
			}
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}

		order.Items = items
		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ErrDuplicateOrderNo
		}
		return err
	}
	return nil
}

// GetByID gets an order by ID
func (r *orderRepository) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Vendor").
		Preload("Supplier").
		Where("id = ?", id).
		First(&order).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo gets an order by order number
func (r *orderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Vendor").
		Preload("Supplier").
		Where("order_no = ?", orderNo).
		First(&order).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// UpdateStatusFields applies status, timestamps and reason in a single
// UPDATE so a transition is never partially persisted
func (r *orderRepository) UpdateStatusFields(ctx context.Context, id uint64, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// SetRating writes the rating only when none exists yet and the order is
// delivered. Zero rows affected means a second write was attempted or the
// order is not ratable.
func (r *orderRepository) SetRating(ctx context.Context, id uint64, rating int, review *string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ? AND rating IS NULL", id, model.OrderStatusDelivered).
		Updates(map[string]interface{}{
			"rating":   rating,
			"review":   review,
			"rated_at": &now,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return utils.ErrRatingExists
	}

	return nil
}

// ListByVendor lists a vendor's orders
func (r *orderRepository) ListByVendor(ctx context.Context, vendorID uint64, page, pageSize int) ([]*model.Order, int64, error) {
	return r.list(ctx, "vendor_id = ?", vendorID, page, pageSize)
}

// ListBySupplier lists a supplier's incoming orders
func (r *orderRepository) ListBySupplier(ctx context.Context, supplierID uint64, page, pageSize int) ([]*model.Order, int64, error) {
	return r.list(ctx, "supplier_id = ?", supplierID, page, pageSize)
}

func (r *orderRepository) list(ctx context.Context, cond string, arg uint64, page, pageSize int) ([]*model.Order, int64, error) {
	var orders []*model.Order
	var total int64

	offset := (page - 1) * pageSize

	db := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where(cond, arg)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Preload("Items").
		Find(&orders).Error

	return orders, total, err
}
