package models

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Classification is the coarse availability bucket of a product.
type Classification string

const (
	FullyAvailable   Classification = "full_in_stock"
	PartiallySoldOut Classification = "partial"
	FullySoldOut     Classification = "full_oos"
)

// Label returns the human readable name used in reports.
func (c Classification) Label() string {
	switch c {
	case FullyAvailable:
		return "Fully Available"
	case PartiallySoldOut:
		return "Partially Sold-Out"
	case FullySoldOut:
		return "Fully Sold-Out"
	default:
		return "Unknown"
	}
}

// Valid reports whether c is one of the known classifications.
func (c Classification) Valid() bool {
	return c == FullyAvailable || c == PartiallySoldOut || c == FullySoldOut
}

// ProductSnapshot is the availability of one product at scan time.
// Available and SoldOut are disjoint and together hold every known size.
type ProductSnapshot struct {
	ID             string
	Title          string
	URL            string
	Classification Classification
	Available      []string
	SoldOut        []string
	// PriceFrom is display-only; it is neither persisted nor compared.
	PriceFrom decimal.NullDecimal
}

// Sizes returns every size of the product, available ones first.
func (p ProductSnapshot) Sizes() []string {
	return slices.Concat(p.Available, p.SoldOut)
}

// InventorySnapshot maps a product ID to its snapshot for one scan.
type InventorySnapshot map[string]ProductSnapshot

// IDs returns the product IDs in ascending order.
func (s InventorySnapshot) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}
