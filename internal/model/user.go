package model

import (
	"time"
)

// User model. Registration, credentials and OTP verification live in the
// external auth system; this table only carries what order processing and
// notification routing need.
type User struct {
	ID           uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string     `gorm:"type:varchar(100);not null" json:"name"`
	Phone        string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"phone"`
	Email        *string    `gorm:"type:varchar(100);uniqueIndex" json:"email,omitempty"`
	Role         string     `gorm:"type:varchar(20);not null;index" json:"role"`
	BusinessName *string    `gorm:"type:varchar(200)" json:"business_name,omitempty"`
	Address      *string    `gorm:"type:varchar(500)" json:"address,omitempty"`
	CreatedAt    time.Time  `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName set name
func (User) TableName() string {
	return "users"
}

// Roles. Vendors buy, suppliers sell.
const (
	RoleVendor   = "vendor"
	RoleSupplier = "supplier"
)

// IsVendor check if user is a vendor
func (u *User) IsVendor() bool {
	return u.Role == RoleVendor
}

// IsSupplier check if user is a supplier
func (u *User) IsSupplier() bool {
	return u.Role == RoleSupplier
}
