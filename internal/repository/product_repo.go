package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/utils"
)

// ProductRepository product repository interface
type ProductRepository interface {
	// Create product
	Create(ctx context.Context, product *model.Product) error

	// Get product by ID
	GetByID(ctx context.Context, id uint64) (*model.Product, error)

	// Update product
	Update(ctx context.Context, product *model.Product) error

	// Reserve stock (atomic conditional decrement)
	ReserveStock(ctx context.Context, id uint64, quantity int) error

	// Release stock (compensating increment for a failed reservation)
	ReleaseStock(ctx context.Context, id uint64, quantity int) error

	// List products by supplier
	ListBySupplier(ctx context.Context, supplierID uint64, page, pageSize int) ([]*model.Product, int64, error)

	// List all product IDs (catalog bloom filter seed)
	ListIDs(ctx context.Context) ([]uint64, error)
}

// productRepository product repository implementation
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a product repository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create creates a product
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// GetByID gets a product by ID
func (r *productRepository) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// Update updates a product
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// ReserveStock verifies availability and decrements stock in one conditional
// UPDATE, so two concurrent checkouts cannot both succeed when only one has
// sufficient stock. Flips is_available off when the decrement empties the
// shelf. Zero rows affected means the stock check failed.
func (r *productRepository) ReserveStock(ctx context.Context, id uint64, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND is_available = ? AND quantity >= ?", id, true, quantity).
		Updates(map[string]interface{}{
			"quantity":     gorm.Expr("quantity - ?", quantity),
			"is_available": gorm.Expr("quantity - ? > 0", quantity),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return utils.ErrStockConflict
	}

	return nil
}

// ReleaseStock returns previously reserved stock and restores availability
func (r *productRepository) ReleaseStock(ctx context.Context, id uint64, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity":     gorm.Expr("quantity + ?", quantity),
			"is_available": true,
		}).Error
}

// ListBySupplier lists a supplier's products
func (r *productRepository) ListBySupplier(ctx context.Context, supplierID uint64, page, pageSize int) ([]*model.Product, int64, error) {
	var products []*model.Product
	var total int64

	offset := (page - 1) * pageSize

	db := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("supplier_id = ?", supplierID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&products).Error

	return products, total, err
}

// ListIDs lists every product ID
func (r *productRepository) ListIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Pluck("id", &ids).Error
	return ids, err
}
