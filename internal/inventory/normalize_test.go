package inventory_test

import (
	"testing"

	"github.com/Houeta/stock-flow/internal/inventory"
	"github.com/Houeta/stock-flow/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qty(n int) *int { return &n }

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestPurchasable(t *testing.T) {
	testCases := []struct {
		name     string
		variant  models.Variant
		expected bool
	}{
		{name: "available without stock level", variant: models.Variant{Available: true}, expected: true},
		{name: "flag disabled", variant: models.Variant{Available: false, InventoryQuantity: qty(10)}, expected: false},
		{name: "positive stock", variant: models.Variant{Available: true, InventoryQuantity: qty(3)}, expected: true},
		{name: "zero stock", variant: models.Variant{Available: true, InventoryQuantity: qty(0)}, expected: false},
		{name: "negative stock", variant: models.Variant{Available: true, InventoryQuantity: qty(-2)}, expected: false},
		{
			name:     "zero stock with backorders",
			variant:  models.Variant{Available: true, InventoryQuantity: qty(0), InventoryPolicy: "continue"},
			expected: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, inventory.Purchasable(tc.variant))
		})
	}
}

func TestNormalizeProduct(t *testing.T) {
	t.Run("size is available when any of its variants can be bought", func(t *testing.T) {
		p := models.Product{
			ID:    "1",
			Title: "Tee",
			URL:   "https://shop.test/products/tee",
			Variants: []models.Variant{
				{Size: "M", Available: false, Price: price("20")},
				{Size: "M", Available: true, Price: price("18.5")},
				{Size: "S", Available: true, InventoryQuantity: qty(0), Price: price("25")},
				{Size: "L", Available: true},
				{Size: "", Available: true, Price: price("5")},
			},
		}

		snap := inventory.NormalizeProduct(p)

		assert.Equal(t, "1", snap.ID)
		assert.Equal(t, "Tee", snap.Title)
		assert.Equal(t, "https://shop.test/products/tee", snap.URL)
		assert.Equal(t, []string{"M", "L"}, snap.Available)
		assert.Equal(t, []string{"S"}, snap.SoldOut)
		assert.Equal(t, models.PartiallySoldOut, snap.Classification)
		require.True(t, snap.PriceFrom.Valid)
		assert.Equal(t, "5", snap.PriceFrom.Decimal.String())
	})

	t.Run("zero variants is fully sold out with empty sets", func(t *testing.T) {
		snap := inventory.NormalizeProduct(models.Product{ID: "2", Title: "Gift card"})

		assert.Equal(t, models.FullySoldOut, snap.Classification)
		assert.Empty(t, snap.Available)
		assert.Empty(t, snap.SoldOut)
		assert.False(t, snap.PriceFrom.Valid)
	})

	t.Run("all sizes in stock", func(t *testing.T) {
		snap := inventory.NormalizeProduct(models.Product{ID: "3", Variants: []models.Variant{
			{Size: "XL", Available: true}, {Size: "XS", Available: true},
		}})

		assert.Equal(t, models.FullyAvailable, snap.Classification)
		assert.Equal(t, []string{"XS", "XL"}, snap.Available)
		assert.Empty(t, snap.SoldOut)
	})
}

func TestNormalize(t *testing.T) {
	products := []models.Product{
		{ID: "10", Variants: []models.Variant{{Size: "S", Available: true}}},
		{ID: "20", Variants: []models.Variant{{Size: "S", Available: false}}},
		{ID: "30"},
	}

	snapshot := inventory.Normalize(products)

	require.Len(t, snapshot, 3)
	assert.Equal(t, []string{"10", "20", "30"}, snapshot.IDs())
	assert.Equal(t, models.FullyAvailable, snapshot["10"].Classification)
	assert.Equal(t, models.FullySoldOut, snapshot["20"].Classification)
	assert.Equal(t, models.FullySoldOut, snapshot["30"].Classification)

	for _, p := range snapshot {
		overlap := make(map[string]bool)
		for _, s := range p.Available {
			overlap[s] = true
		}
		for _, s := range p.SoldOut {
			assert.False(t, overlap[s], "size %s is both available and sold out", s)
		}
	}
}
