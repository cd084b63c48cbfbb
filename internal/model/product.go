package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Product supplier-owned catalog entry. Quantity and IsAvailable are the live
// stock state; once an order is created the order's own item snapshots are
// authoritative and later product changes do not affect it. Stock is mutated
// only by the order transaction builder.
type Product struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SupplierID  uint64    `gorm:"type:bigint unsigned;not null;index" json:"supplier_id"`
	Name        string    `gorm:"type:varchar(200);not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Category    *string   `gorm:"type:varchar(50);index" json:"category,omitempty"`
	Unit        *string   `gorm:"type:varchar(20)" json:"unit,omitempty"`
	Images      JSONArray `gorm:"type:json" json:"images,omitempty"`
	Price       int64     `gorm:"type:bigint;not null" json:"price"` // cents
	Quantity    int       `gorm:"type:int;not null;default:0" json:"quantity"`
	IsAvailable bool      `gorm:"type:tinyint(1);not null;default:1" json:"is_available"`
	CreatedAt   time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`

	Supplier *User `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

// TableName set name
func (Product) TableName() string {
	return "products"
}

// JSONArray custom json array type
type JSONArray []string

// Value implement driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implement sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into JSONArray", value)
	}

	return json.Unmarshal(bytes, j)
}

// HasStock check if the product can cover the requested quantity
func (p *Product) HasStock(qty int) bool {
	return p.IsAvailable && p.Quantity >= qty
}

// GetPriceDisplay get price in major units
func (p *Product) GetPriceDisplay() float64 {
	return float64(p.Price) / 100
}
