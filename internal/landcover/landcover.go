// Package landcover estimates how much of a parcel is already cleared from
// a free-text hint.
package landcover

import (
	"math"
	"strings"
)

// DefaultClearedFraction applies when the hint says nothing useful.
const DefaultClearedFraction = 0.6

var agriculturalWords = []string{"pasture", "hay", "farm", "field"}

// ClearedFraction maps a hint to the share of the parcel assumed cleared.
// Matching is case-insensitive by substring, first rule wins.
func ClearedFraction(hint string) float64 {
	h := strings.ToLower(hint)

	switch {
	case strings.Contains(h, "majority"):
		return 0.8
	case strings.Contains(h, "mostly"):
		return 0.7
	case strings.Contains(h, "partial"):
		return 0.5
	}
	for _, w := range agriculturalWords {
		if strings.Contains(h, w) {
			return 0.75
		}
	}
	return DefaultClearedFraction
}

// EstimateClearedAcres returns acres times ClearedFraction(hint), rounded
// half to even at two decimals. Sizing downstream starts from this value.
func EstimateClearedAcres(acres float64, hint string) float64 {
	return math.RoundToEven(acres*ClearedFraction(hint)*100) / 100
}
