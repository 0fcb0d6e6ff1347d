package landcover

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClearedFraction(t *testing.T) {
	tests := []struct {
		hint string
		want float64
	}{
		{hint: "", want: 0.6},
		{hint: "wooded lot", want: 0.6},
		{hint: "Majority cleared", want: 0.8},
		{hint: "MOSTLY open", want: 0.7},
		{hint: "partially wooded", want: 0.5},
		{hint: "old pasture", want: 0.75},
		{hint: "hayfield", want: 0.75},
		{hint: "Farm land", want: 0.75},
		{hint: "open field", want: 0.75},
		{hint: "majority pasture", want: 0.8},
		{hint: "mostly partial", want: 0.7},
		{hint: "partial farm", want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			assert.Equal(t, tt.want, ClearedFraction(tt.hint))
		})
	}
}

func TestEstimateClearedAcres(t *testing.T) {
	assert.InDelta(t, 20.0, EstimateClearedAcres(25, "majority cleared"), 1e-12)
	assert.InDelta(t, 7.5, EstimateClearedAcres(10, "pasture"), 1e-12)
	assert.InDelta(t, 6.0, EstimateClearedAcres(10, ""), 1e-12)
	assert.InDelta(t, 0.0, EstimateClearedAcres(0, "majority"), 1e-12)
}

func TestEstimateClearedAcres_RoundsToHundredths(t *testing.T) {
	tests := []struct {
		name  string
		acres float64
		hint  string
		want  float64
	}{
		{name: "default fraction", acres: 10.123, hint: "", want: 6.07},
		{name: "mostly", acres: 3.333, hint: "mostly", want: 2.33},
		{name: "farm", acres: 7.777, hint: "farm", want: 5.83},
		{name: "already exact", acres: 12.5, hint: "partial", want: 6.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateClearedAcres(tt.acres, tt.hint))
		})
	}
}
