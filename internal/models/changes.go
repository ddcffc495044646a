package models

import "github.com/shopspring/decimal"

// ChangeKind tells why a product ended up in the change set.
type ChangeKind string

const (
	ChangeNew     ChangeKind = "new"
	ChangeChanged ChangeKind = "changed"
	ChangeRemoved ChangeKind = "removed"
)

// ChangeRecord - the difference between two scans for one product.
type ChangeRecord struct {
	ID    string
	Title string
	URL   string
	Kind  ChangeKind
	// Previous is empty for new products.
	Previous Classification
	// Current is empty for removed products.
	Current      Classification
	ChangedSizes []string
	Available    []string
	SoldOut      []string
	PriceFrom    decimal.NullDecimal
}

// Report - a rendered change report ready to be delivered.
type Report struct {
	Subject string
	HTML    string
	Text    string
	Changes []ChangeRecord
}

// RunResult - the outcome of one monitoring run.
type RunResult struct {
	RunID    string
	Products int
	Changes  []ChangeRecord
	Notified bool
	// DeliveryErr is set when the report could not be delivered; the snapshot is still persisted.
	DeliveryErr error
}

// CountByKind returns how many change records there are per kind.
func CountByKind(changes []ChangeRecord) map[ChangeKind]int {
	counts := map[ChangeKind]int{ChangeNew: 0, ChangeChanged: 0, ChangeRemoved: 0}
	for _, c := range changes {
		counts[c.Kind]++
	}

	return counts
}
