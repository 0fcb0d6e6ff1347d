package geometry

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/peterstace/simplefeatures/geom"
	"github.com/rotisserie/eris"
)

// ErrInvalidGeometry marks polygons that cannot be measured.
var ErrInvalidGeometry = eris.New("invalid geometry")

// Validate checks that p has at least one ring, that every ring has at least
// four points and that every coordinate is finite.
func Validate(p orb.Polygon) error {
	if len(p) == 0 {
		return eris.Wrap(ErrInvalidGeometry, "polygon has no rings")
	}
	for i, ring := range p {
		if len(ring) < 4 {
			return eris.Wrapf(ErrInvalidGeometry, "ring %d has %d points", i, len(ring))
		}
		for _, pt := range ring {
			if !finite(pt[0]) || !finite(pt[1]) {
				return eris.Wrapf(ErrInvalidGeometry, "ring %d has a non-finite coordinate", i)
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// UnionAreaWithin returns the area, in square degrees, of the union of shapes
// intersected with the bound b. The first ring of a shape is its shell and
// the rest are holes. Shared area is counted once.
//
// Shapes whose bound misses b are dropped before any overlay work, and every
// other shape is cut down to b first, so cost follows the vertices near b.
// Any shape failing Validate, or that the overlay rejects, makes the whole
// computation fail. A cancelled ctx stops the union and returns its error.
func UnionAreaWithin(ctx context.Context, b orb.Bound, shapes []orb.Polygon) (float64, error) {
	box, err := toGeom(b.ToPolygon())
	if err != nil {
		return 0, err
	}

	parts := make([]geom.Geometry, 0, len(shapes))
	for _, shape := range shapes {
		if err := Validate(shape); err != nil {
			return 0, err
		}
		if !shape.Bound().Intersects(b) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return 0, eris.Wrap(err, "union area")
		}

		g, err := toGeom(shape)
		if err != nil {
			return 0, err
		}
		clipped, err := geom.Intersection(g, box)
		if err != nil {
			return 0, eris.Wrapf(ErrInvalidGeometry, "clip to bound: %v", err)
		}
		// Touching the bound leaves only lines or points.
		if clipped.Area() > 0 {
			parts = append(parts, clipped)
		}
	}

	union, err := unionAll(ctx, parts)
	if err != nil {
		return 0, err
	}
	return union.Area(), nil
}

// unionAll merges parts pairwise, level by level, so each overlay works on
// operands of similar size.
func unionAll(ctx context.Context, parts []geom.Geometry) (geom.Geometry, error) {
	if len(parts) == 0 {
		return geom.Geometry{}, nil
	}

	for len(parts) > 1 {
		next := make([]geom.Geometry, 0, (len(parts)+1)/2)
		for i := 0; i+1 < len(parts); i += 2 {
			if err := ctx.Err(); err != nil {
				return geom.Geometry{}, eris.Wrap(err, "union area")
			}
			u, err := geom.Union(parts[i], parts[i+1])
			if err != nil {
				return geom.Geometry{}, eris.Wrapf(ErrInvalidGeometry, "union: %v", err)
			}
			next = append(next, u)
		}
		if len(parts)%2 == 1 {
			next = append(next, parts[len(parts)-1])
		}
		parts = next
	}
	return parts[0], nil
}

// toGeom converts an orb polygon through WKT. Rings are closed on the way.
func toGeom(p orb.Polygon) (geom.Geometry, error) {
	var sb strings.Builder
	sb.WriteString("POLYGON(")
	for i, ring := range p {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('(')
		for j, pt := range ring {
			if j > 0 {
				sb.WriteByte(',')
			}
			writePoint(&sb, pt)
		}
		if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
			sb.WriteByte(',')
			writePoint(&sb, ring[0])
		}
		sb.WriteByte(')')
	}
	sb.WriteByte(')')

	g, err := geom.UnmarshalWKT(sb.String())
	if err != nil {
		return geom.Geometry{}, eris.Wrapf(ErrInvalidGeometry, "%v", err)
	}
	return g, nil
}

func writePoint(sb *strings.Builder, pt orb.Point) {
	sb.WriteString(strconv.FormatFloat(pt[0], 'f', -1, 64))
	sb.WriteByte(' ')
	sb.WriteString(strconv.FormatFloat(pt[1], 'f', -1, 64))
}
