package inventory

import (
	"cmp"
	"slices"

	"github.com/Houeta/stock-flow/internal/models"
)

// sizeState is the availability of one size in one scan.
type sizeState int

const (
	sizeAbsent sizeState = iota
	sizeAvailable
	sizeSoldOut
)

// Diff compares the previous scan with the current one.
// The result is ordered by product ID; identical products produce no record.
// Size lists are compared as sets, so their order in a stored snapshot does not matter.
func Diff(prev, curr models.InventorySnapshot) []models.ChangeRecord {
	var changes []models.ChangeRecord

	for _, id := range curr.IDs() {
		now := curr[id]
		before, found := prev[id]

		switch {
		case !found:
			record := newRecord(now, models.ChangeNew)
			record.ChangedSizes = now.Sizes()
			SortSizes(record.ChangedSizes)
			changes = append(changes, record)
		default:
			sizes := changedSizes(before, now)
			if len(sizes) == 0 && before.Classification == now.Classification {
				continue
			}
			record := newRecord(now, models.ChangeChanged)
			record.Previous = before.Classification
			record.ChangedSizes = sizes
			changes = append(changes, record)
		}
	}

	for _, id := range prev.IDs() {
		if _, found := curr[id]; found {
			continue
		}
		before := prev[id]
		record := models.ChangeRecord{
			ID:           before.ID,
			Title:        before.Title,
			URL:          before.URL,
			Kind:         models.ChangeRemoved,
			Previous:     before.Classification,
			ChangedSizes: before.Sizes(),
			Available:    before.Available,
			SoldOut:      before.SoldOut,
		}
		if record.ID == "" {
			record.ID = id
		}
		SortSizes(record.ChangedSizes)
		changes = append(changes, record)
	}

	slices.SortStableFunc(changes, func(a, b models.ChangeRecord) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return changes
}

func newRecord(p models.ProductSnapshot, kind models.ChangeKind) models.ChangeRecord {
	return models.ChangeRecord{
		ID:        p.ID,
		Title:     p.Title,
		URL:       p.URL,
		Kind:      kind,
		Current:   p.Classification,
		Available: p.Available,
		SoldOut:   p.SoldOut,
		PriceFrom: p.PriceFrom,
	}
}

// changedSizes lists the sizes whose state differs between the two scans,
// including sizes that appeared or disappeared.
func changedSizes(before, now models.ProductSnapshot) []string {
	prevStates := sizeStates(before)
	currStates := sizeStates(now)

	var changed []string
	for size, state := range currStates {
		if prevStates[size] != state {
			changed = append(changed, size)
		}
	}
	for size := range prevStates {
		if _, found := currStates[size]; !found {
			changed = append(changed, size)
		}
	}
	SortSizes(changed)

	return changed
}

func sizeStates(p models.ProductSnapshot) map[string]sizeState {
	states := make(map[string]sizeState, len(p.Available)+len(p.SoldOut))
	for _, size := range p.Available {
		states[size] = sizeAvailable
	}
	for _, size := range p.SoldOut {
		states[size] = sizeSoldOut
	}

	return states
}
