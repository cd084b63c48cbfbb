package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/utils"
)

// UserRepository user repository interface
type UserRepository interface {
	// Get user by ID
	GetByID(ctx context.Context, id uint64) (*model.User, error)

	// Get user by ID requiring the supplier role
	GetSupplier(ctx context.Context, id uint64) (*model.User, error)

	// Create user
	Create(ctx context.Context, user *model.User) error
}

// userRepository user repository implementation
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID gets a user by ID
func (r *userRepository) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetSupplier gets a user by ID and verifies the supplier role
func (r *userRepository) GetSupplier(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND role = ?", id, model.RoleSupplier).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrSupplierNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create creates a user
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}
