package cart

import (
	"fmt"

	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/log"
)

// Item one cart line. UnitPrice is the live catalog price at the time the
// item entered the cart; the final snapshot happens at order creation.
type Item struct {
	ProductID   uint64 `json:"product_id"`
	ProductName string `json:"product_name"`
	SupplierID  uint64 `json:"supplier_id"`
	UnitPrice   int64  `json:"unit_price"` // cents
	Quantity    int    `json:"quantity"`
}

// LineTotal returns quantity times unit price
func (i *Item) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Config delivery fee policy
type Config struct {
	FreeDeliveryThreshold int64 // cents; supplier subtotal at or above this ships free
	FlatDeliveryFee       int64 // cents per supplier group under the threshold
}

// Cart client-held shopping cart. Derived totals are recomputed from the
// item list on every mutation and never stored independently of it.
type Cart struct {
	cfg         Config
	items       []Item
	subtotal    int64
	deliveryFee int64
	total       int64
}

// New creates an empty cart
func New(cfg Config) *Cart {
	return &Cart{cfg: cfg}
}

// AddItem adds a product to the cart, merging quantity into an existing
// line for the same product. Products without an identity or a supplier
// reference are rejected.
func (c *Cart) AddItem(product *model.Product, qty int) error {
	if product == nil || product.ID == 0 {
		return fmt.Errorf("product has no identity")
	}
	if product.SupplierID == 0 {
		return fmt.Errorf("product %d has no supplier reference", product.ID)
	}
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive")
	}

	for i := range c.items {
		if c.items[i].ProductID == product.ID {
			c.items[i].Quantity += qty
			c.recompute()
			return nil
		}
	}

	c.items = append(c.items, Item{
		ProductID:   product.ID,
		ProductName: product.Name,
		SupplierID:  product.SupplierID,
		UnitPrice:   product.Price,
		Quantity:    qty,
	})
	c.recompute()
	return nil
}

// UpdateQuantity sets the quantity of a cart line. A quantity of zero or
// less removes the line rather than keeping it at zero.
func (c *Cart) UpdateQuantity(productID uint64, qty int) {
	if qty <= 0 {
		c.RemoveItem(productID)
		return
	}
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity = qty
			break
		}
	}
	c.recompute()
}

// RemoveItem removes a cart line
func (c *Cart) RemoveItem(productID uint64) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
	c.recompute()
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.items = nil
	c.recompute()
}

// Items returns the cart lines in insertion order
func (c *Cart) Items() []Item {
	return c.items
}

// Subtotal returns the sum of all line totals
func (c *Cart) Subtotal() int64 {
	return c.subtotal
}

// DeliveryFee returns the cart-wide delivery fee
func (c *Cart) DeliveryFee() int64 {
	return c.deliveryFee
}

// Total returns subtotal plus delivery fee
func (c *Cart) Total() int64 {
	return c.total
}

// recompute derives subtotal, delivery fee and total from the item list.
// Each supplier group ships free at or above the threshold, otherwise the
// flat fee applies per group.
func (c *Cart) recompute() {
	c.subtotal = 0
	c.deliveryFee = 0

	supplierSubtotals := make(map[uint64]int64)
	for i := range c.items {
		lineTotal := c.items[i].LineTotal()
		c.subtotal += lineTotal
		supplierSubtotals[c.items[i].SupplierID] += lineTotal
	}

	for _, groupSubtotal := range supplierSubtotals {
		c.deliveryFee += c.groupFee(groupSubtotal)
	}

	c.total = c.subtotal + c.deliveryFee
}

func (c *Cart) groupFee(groupSubtotal int64) int64 {
	if groupSubtotal >= c.cfg.FreeDeliveryThreshold {
		return 0
	}
	return c.cfg.FlatDeliveryFee
}

// SupplierGroup the per-supplier slice of a cart, the exact input unit of
// the order transaction builder
type SupplierGroup struct {
	SupplierID  uint64 `json:"supplier_id"`
	Items       []Item `json:"items"`
	Subtotal    int64  `json:"subtotal"`
	DeliveryFee int64  `json:"delivery_fee"`
	Total       int64  `json:"total"`
}

// SplitBySupplier partitions the cart into one group per distinct supplier,
// preserving item insertion order. Items with no resolvable supplier are
// dropped with a warning, never merged into another group.
func (c *Cart) SplitBySupplier() []SupplierGroup {
	groupIndex := make(map[uint64]int)
	groups := make([]SupplierGroup, 0)

	for _, item := range c.items {
		if item.SupplierID == 0 {
			log.WithFields(map[string]interface{}{
				"product_id": item.ProductID,
			}).Warn("Dropping cart item with no supplier reference")
			continue
		}

		idx, ok := groupIndex[item.SupplierID]
		if !ok {
			idx = len(groups)
			groupIndex[item.SupplierID] = idx
			groups = append(groups, SupplierGroup{SupplierID: item.SupplierID})
		}
		groups[idx].Items = append(groups[idx].Items, item)
		groups[idx].Subtotal += item.LineTotal()
	}

	for i := range groups {
		groups[i].DeliveryFee = c.groupFee(groups[i].Subtotal)
		groups[i].Total = groups[i].Subtotal + groups[i].DeliveryFee
	}

	return groups
}
