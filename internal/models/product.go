package models

import "github.com/shopspring/decimal"

// Product is one catalog entry as returned by the storefront.
type Product struct {
	ID       string
	Title    string
	Handle   string
	URL      string
	Variants []Variant
}

// Variant is a single purchasable option of a product, tracked per size.
type Variant struct {
	ID                int64
	Size              string
	Available         bool
	InventoryQuantity *int // nil when the storefront does not expose stock levels.
	InventoryPolicy   string
	Price             decimal.NullDecimal
}
