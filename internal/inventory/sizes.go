package inventory

import (
	"slices"
	"strconv"
	"strings"
)

// letterSizes is the usual apparel order; aliases share a rank.
var letterSizes = map[string]int{
	"XXXS": 0, "3XS": 0,
	"XXS": 1, "2XS": 1,
	"XS":  2,
	"S":   3,
	"M":   4,
	"L":   5,
	"XL":  6,
	"XXL": 7, "2XL": 7,
	"XXXL": 8, "3XL": 8,
	"XXXXL": 9, "4XL": 9,
	"5XL": 10,
}

// SortSizes orders sizes in place: letter sizes first, then numeric sizes ascending,
// then everything else alphabetically.
func SortSizes(sizes []string) {
	slices.SortStableFunc(sizes, compareSizes)
}

func compareSizes(a, b string) int {
	ga, ka := sizeKey(a)
	gb, kb := sizeKey(b)
	if ga != gb {
		return ga - gb
	}
	if ga != groupOther && ka != kb {
		if ka < kb {
			return -1
		}
		return 1
	}

	return strings.Compare(a, b)
}

const (
	groupLetter = iota
	groupNumeric
	groupOther
)

func sizeKey(size string) (int, float64) {
	normalized := strings.ToUpper(strings.TrimSpace(size))
	if rank, ok := letterSizes[normalized]; ok {
		return groupLetter, float64(rank)
	}
	if n, err := strconv.ParseFloat(strings.ReplaceAll(normalized, ",", "."), 64); err == nil {
		return groupNumeric, n
	}

	return groupOther, 0
}
