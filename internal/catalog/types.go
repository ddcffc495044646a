package catalog

import (
	"strconv"
	"strings"

	"github.com/Houeta/stock-flow/internal/models"
	"github.com/shopspring/decimal"
)

type productsPage struct {
	Products []rawProduct `json:"products"`
}

type rawProduct struct {
	ID       int64        `json:"id"`
	Title    string       `json:"title"`
	Handle   string       `json:"handle"`
	Variants []rawVariant `json:"variants"`
}

type rawVariant struct {
	ID                int64               `json:"id"`
	Title             string              `json:"title"`
	Option1           *string             `json:"option1"`
	Available         *bool               `json:"available"`
	InventoryQuantity *int                `json:"inventory_quantity"`
	InventoryPolicy   string              `json:"inventory_policy"`
	Price             decimal.NullDecimal `json:"price"`
}

func (p rawProduct) toModel(baseURL string) models.Product {
	product := models.Product{
		ID:       strconv.FormatInt(p.ID, 10),
		Title:    strings.TrimSpace(p.Title),
		Handle:   p.Handle,
		Variants: make([]models.Variant, 0, len(p.Variants)),
	}
	if product.Title == "" {
		product.Title = "Unknown product"
	}
	if p.Handle != "" {
		product.URL = baseURL + "/products/" + p.Handle
	}

	for _, v := range p.Variants {
		product.Variants = append(product.Variants, v.toModel())
	}

	return product
}

func (v rawVariant) toModel() models.Variant {
	size := v.Title
	if v.Option1 != nil && strings.TrimSpace(*v.Option1) != "" {
		size = *v.Option1
	}

	// Storefronts that hide the flag are treated as selling the variant.
	available := true
	if v.Available != nil {
		available = *v.Available
	}

	return models.Variant{
		ID:                v.ID,
		Size:              strings.TrimSpace(size),
		Available:         available,
		InventoryQuantity: v.InventoryQuantity,
		InventoryPolicy:   v.InventoryPolicy,
		Price:             v.Price,
	}
}
