package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// discSegments is the number of sides of the polygon standing in for a disc.
const discSegments = 16

// BufferPieces returns convex pieces whose union with p approximates p grown
// outward by distance d: one rectangle per edge and one inscribed disc per
// vertex. Holes shrink the same way. Returns nil when d is not positive.
func BufferPieces(p orb.Polygon, d float64) []orb.Polygon {
	if !(d > 0) {
		return nil
	}

	var pieces []orb.Polygon
	for _, ring := range p {
		n := len(ring)
		if n == 0 {
			continue
		}
		last := n
		if n > 1 && ring[0] == ring[n-1] {
			last = n - 1
		}

		for i := 0; i < last; i++ {
			a := ring[i]
			b := ring[(i+1)%last]
			if a != b {
				pieces = append(pieces, edgeRect(a, b, d))
			}
			pieces = append(pieces, disc(a, d))
		}
	}
	return pieces
}

// Buffer returns p together with its buffer pieces, ready for
// UnionAreaWithin.
func Buffer(p orb.Polygon, d float64) []orb.Polygon {
	return append([]orb.Polygon{p}, BufferPieces(p, d)...)
}

func edgeRect(a, b orb.Point, d float64) orb.Polygon {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	l := math.Hypot(dx, dy)
	nx := -dy / l * d
	ny := dx / l * d

	return orb.Polygon{orb.Ring{
		{a[0] + nx, a[1] + ny},
		{b[0] + nx, b[1] + ny},
		{b[0] - nx, b[1] - ny},
		{a[0] - nx, a[1] - ny},
		{a[0] + nx, a[1] + ny},
	}}
}

// disc is offset by half a segment so no vertex lands on an edge rectangle's
// corner.
func disc(c orb.Point, r float64) orb.Polygon {
	ring := make(orb.Ring, 0, discSegments+1)
	for i := 0; i < discSegments; i++ {
		theta := 2 * math.Pi * (float64(i) + 0.5) / discSegments
		ring = append(ring, orb.Point{c[0] + r*math.Cos(theta), c[1] + r*math.Sin(theta)})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}
