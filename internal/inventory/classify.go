// Package inventory turns catalog products into availability snapshots and compares them.
package inventory

import "github.com/Houeta/stock-flow/internal/models"

// Classify buckets a product by its size sets.
// A product without any available size is fully sold out, including one with no sizes at all.
func Classify(available, soldOut []string) models.Classification {
	switch {
	case len(available) == 0:
		return models.FullySoldOut
	case len(soldOut) == 0:
		return models.FullyAvailable
	default:
		return models.PartiallySoldOut
	}
}
