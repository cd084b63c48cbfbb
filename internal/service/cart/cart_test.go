package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
)

func testConfig() Config {
	return Config{
		FreeDeliveryThreshold: 50000,
		FlatDeliveryFee:       5000,
	}
}

func product(id, supplierID uint64, price int64) *model.Product {
	return &model.Product{
		ID:         id,
		SupplierID: supplierID,
		Name:       "Test Product",
		Price:      price,
		Quantity:   100,
	}
}

func TestCart_AddItem(t *testing.T) {
	c := New(testConfig())

	err := c.AddItem(product(1, 10, 1500), 2)
	require.NoError(t, err)

	assert.Len(t, c.Items(), 1)
	assert.Equal(t, int64(3000), c.Subtotal())
}

func TestCart_AddItem_MergesSameProduct(t *testing.T) {
	c := New(testConfig())

	require.NoError(t, c.AddItem(product(1, 10, 1500), 2))
	require.NoError(t, c.AddItem(product(1, 10, 1500), 3))

	require.Len(t, c.Items(), 1)
	assert.Equal(t, 5, c.Items()[0].Quantity)
	assert.Equal(t, int64(7500), c.Subtotal())
}

func TestCart_AddItem_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		product *model.Product
		qty     int
	}{
		{"nil product", nil, 1},
		{"no identity", product(0, 10, 100), 1},
		{"no supplier", product(1, 0, 100), 1},
		{"zero quantity", product(1, 10, 100), 0},
		{"negative quantity", product(1, 10, 100), -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(testConfig())
			assert.Error(t, c.AddItem(tt.product, tt.qty))
			assert.Empty(t, c.Items())
		})
	}
}

func TestCart_UpdateQuantity(t *testing.T) {
	c := New(testConfig())
	require.NoError(t, c.AddItem(product(1, 10, 1000), 2))

	c.UpdateQuantity(1, 5)
	assert.Equal(t, int64(5000), c.Subtotal())

	// zero removes the line entirely
	c.UpdateQuantity(1, 0)
	assert.Empty(t, c.Items())
	assert.Zero(t, c.Subtotal())
	assert.Zero(t, c.Total())
}

func TestCart_RemoveItem(t *testing.T) {
	c := New(testConfig())
	require.NoError(t, c.AddItem(product(1, 10, 1000), 2))
	require.NoError(t, c.AddItem(product(2, 10, 2000), 1))

	c.RemoveItem(1)

	require.Len(t, c.Items(), 1)
	assert.Equal(t, uint64(2), c.Items()[0].ProductID)
	assert.Equal(t, int64(2000), c.Subtotal())
}

func TestCart_DeliveryFee(t *testing.T) {
	tests := []struct {
		name        string
		price       int64
		qty         int
		expectedFee int64
	}{
		{"under threshold pays flat fee", 10000, 2, 5000},
		{"at threshold ships free", 25000, 2, 0},
		{"above threshold ships free", 30000, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(testConfig())
			require.NoError(t, c.AddItem(product(1, 10, tt.price), tt.qty))

			assert.Equal(t, tt.expectedFee, c.DeliveryFee())
			assert.Equal(t, c.Subtotal()+tt.expectedFee, c.Total())
		})
	}
}

func TestCart_DeliveryFee_PerSupplierGroup(t *testing.T) {
	c := New(testConfig())

	// supplier 10 stays under the threshold, supplier 20 crosses it
	require.NoError(t, c.AddItem(product(1, 10, 10000), 1))
	require.NoError(t, c.AddItem(product(2, 20, 60000), 1))

	assert.Equal(t, int64(5000), c.DeliveryFee())
	assert.Equal(t, int64(75000), c.Total())
}

func TestCart_SplitBySupplier(t *testing.T) {
	c := New(testConfig())

	require.NoError(t, c.AddItem(product(1, 10, 10000), 1))
	require.NoError(t, c.AddItem(product(2, 20, 60000), 1))
	require.NoError(t, c.AddItem(product(3, 10, 5000), 2))

	groups := c.SplitBySupplier()
	require.Len(t, groups, 2)

	// insertion order of first appearance
	assert.Equal(t, uint64(10), groups[0].SupplierID)
	assert.Equal(t, uint64(20), groups[1].SupplierID)

	assert.Len(t, groups[0].Items, 2)
	assert.Equal(t, int64(20000), groups[0].Subtotal)
	assert.Equal(t, int64(5000), groups[0].DeliveryFee)

	assert.Len(t, groups[1].Items, 1)
	assert.Equal(t, int64(60000), groups[1].Subtotal)
	assert.Zero(t, groups[1].DeliveryFee)
}

func TestCart_SplitBySupplier_TotalsMatchCart(t *testing.T) {
	c := New(testConfig())

	require.NoError(t, c.AddItem(product(1, 10, 12300), 1))
	require.NoError(t, c.AddItem(product(2, 20, 45600), 2))
	require.NoError(t, c.AddItem(product(3, 30, 7800), 3))

	var groupSum int64
	for _, g := range c.SplitBySupplier() {
		assert.Equal(t, g.Subtotal+g.DeliveryFee, g.Total)
		groupSum += g.Total
	}

	assert.Equal(t, c.Total(), groupSum)
}

func TestCart_Clear(t *testing.T) {
	c := New(testConfig())
	require.NoError(t, c.AddItem(product(1, 10, 1000), 1))

	c.Clear()

	assert.Empty(t, c.Items())
	assert.Zero(t, c.Subtotal())
	assert.Zero(t, c.DeliveryFee())
	assert.Zero(t, c.Total())
	assert.Empty(t, c.SplitBySupplier())
}
