package inventory

import (
	"github.com/Houeta/stock-flow/internal/models"
	"github.com/shopspring/decimal"
)

// inventoryPolicyContinue lets a variant be ordered past zero stock.
const inventoryPolicyContinue = "continue"

// Normalize builds the inventory snapshot of one scan.
// Products are keyed by ID; a later duplicate ID replaces an earlier one.
func Normalize(products []models.Product) models.InventorySnapshot {
	snapshot := make(models.InventorySnapshot, len(products))
	for _, p := range products {
		snapshot[p.ID] = NormalizeProduct(p)
	}

	return snapshot
}

// NormalizeProduct computes the availability of a single product.
// A size is available when at least one of its variants can be bought.
func NormalizeProduct(p models.Product) models.ProductSnapshot {
	inStock := make(map[string]bool, len(p.Variants))
	var priceFrom decimal.NullDecimal

	for _, v := range p.Variants {
		if v.Price.Valid && (!priceFrom.Valid || v.Price.Decimal.LessThan(priceFrom.Decimal)) {
			priceFrom = v.Price
		}
		if v.Size == "" {
			continue
		}
		inStock[v.Size] = inStock[v.Size] || Purchasable(v)
	}

	var available, soldOut []string
	for size, ok := range inStock {
		if ok {
			available = append(available, size)
		} else {
			soldOut = append(soldOut, size)
		}
	}
	SortSizes(available)
	SortSizes(soldOut)

	return models.ProductSnapshot{
		ID:             p.ID,
		Title:          p.Title,
		URL:            p.URL,
		Classification: Classify(available, soldOut),
		Available:      available,
		SoldOut:        soldOut,
		PriceFrom:      priceFrom,
	}
}

// Purchasable reports whether a unit of the variant can be ordered right now.
func Purchasable(v models.Variant) bool {
	if !v.Available {
		return false
	}
	if v.InventoryQuantity == nil || v.InventoryPolicy == inventoryPolicyContinue {
		return true
	}

	return *v.InventoryQuantity > 0
}
