// Package geometry holds the planar geometry used by the screener: the
// synthetic square parcel footprint, unit conversions between square degrees
// and acres, and union area of polygons clipped to a footprint.
//
// All math is in raw lon/lat degrees with a fixed meters-per-degree constant.
// There is no projection and no geodesic correction.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// MetersPerDegree is the flat conversion used for both axes.
	MetersPerDegree = 111139.0
	// SquareMetersPerAcre sizes the footprint.
	SquareMetersPerAcre = 4046.85642
	// FeetPerMeter converts buffer distances given in feet.
	FeetPerMeter = 3.28084
	// MinFootprintAcres is the smallest footprint ever built.
	MinFootprintAcres = 0.1

	// squareMetersPerAcreArea is the divisor used when converting areas back.
	// It differs from SquareMetersPerAcre in the fifth decimal.
	squareMetersPerAcreArea = 4046.856
)

// SquareFootprint builds an axis-aligned square of the given acreage centered
// on (lon, lat). The ring is closed and runs counter-clockwise from the
// south-west corner. Acreage below MinFootprintAcres is raised to it.
func SquareFootprint(lon, lat, acres float64) orb.Polygon {
	if !(acres >= MinFootprintAcres) {
		acres = MinFootprintAcres
	}

	sideM := math.Sqrt(acres * SquareMetersPerAcre)
	d := (sideM / 2) / MetersPerDegree

	return orb.Polygon{orb.Ring{
		{lon - d, lat - d},
		{lon + d, lat - d},
		{lon + d, lat + d},
		{lon - d, lat + d},
		{lon - d, lat - d},
	}}
}

// AcresFromDegrees2 converts an area in square degrees to acres.
func AcresFromDegrees2(area float64) float64 {
	return area * MetersPerDegree * MetersPerDegree / squareMetersPerAcreArea
}

// FeetToDegrees converts a distance in feet to degrees.
func FeetToDegrees(feet float64) float64 {
	return feet / (FeetPerMeter * MetersPerDegree)
}
