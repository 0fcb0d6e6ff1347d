package arcgis

import (
	"encoding/json"
	"math"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
)

// Error markers carried by a FeatureCollection.
const (
	MarkerNonJSON       = "non_json_response"
	MarkerRequestFailed = "request_failed"
	MarkerArcGISError   = "arcgis_error"
)

// ErrMalformedGeometry marks feature geometry that could not be decoded.
var ErrMalformedGeometry = eris.New("malformed esri geometry")

// Feature is one record returned by a layer query.
type Feature struct {
	// Geometry is nil when the service returned none.
	Geometry orb.Geometry
	// GeometryErr is set when a geometry was present but could not be decoded.
	GeometryErr error
	Attributes  map[string]interface{}
}

// FeatureCollection is the result of every spatial query. It is always
// usable: on failure Features is empty and Error names what went wrong.
type FeatureCollection struct {
	Features   []Feature
	Error      string
	StatusCode int
	Snippet    string
}

// Failed reports whether the query failed.
func (fc FeatureCollection) Failed() bool {
	return fc.Error != ""
}

// Len returns the number of features.
func (fc FeatureCollection) Len() int {
	return len(fc.Features)
}

func emptyCollection(marker string) FeatureCollection {
	return FeatureCollection{Features: []Feature{}, Error: marker}
}

// wire types

type queryResponse struct {
	Features []wireFeature `json:"features"`
	Error    *serviceError `json:"error"`
}

type wireFeature struct {
	Attributes map[string]interface{} `json:"attributes"`
	Geometry   json.RawMessage        `json:"geometry"`
}

type serviceError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

type esriGeometry struct {
	X      *float64      `json:"x"`
	Y      *float64      `json:"y"`
	Points [][]float64   `json:"points"`
	Paths  [][][]float64 `json:"paths"`
	Rings  [][][]float64 `json:"rings"`
}

type spatialReference struct {
	WKID int `json:"wkid"`
}

type esriPolygon struct {
	Rings            [][][2]float64   `json:"rings"`
	SpatialReference spatialReference `json:"spatialReference"`
}

func toFeature(w wireFeature) Feature {
	attrs := w.Attributes
	if attrs == nil {
		attrs = map[string]interface{}{}
	}
	geom, err := decodeGeometry(w.Geometry)
	return Feature{Geometry: geom, GeometryErr: err, Attributes: attrs}
}

// decodeGeometry converts Esri JSON geometry into orb. Rings of a polygon
// stay together in one orb.Polygon, holes included, and are filled even-odd.
// Coordinates with fewer than two values decode as NaN so later validation
// rejects them.
func decodeGeometry(raw json.RawMessage) (orb.Geometry, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var g esriGeometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, eris.Wrap(ErrMalformedGeometry, err.Error())
	}

	switch {
	case g.Rings != nil:
		poly := make(orb.Polygon, 0, len(g.Rings))
		for _, r := range g.Rings {
			poly = append(poly, orb.Ring(toPoints(r)))
		}
		return poly, nil
	case g.Paths != nil:
		mls := make(orb.MultiLineString, 0, len(g.Paths))
		for _, p := range g.Paths {
			mls = append(mls, orb.LineString(toPoints(p)))
		}
		return mls, nil
	case g.Points != nil:
		return orb.MultiPoint(toPoints(g.Points)), nil
	case g.X != nil && g.Y != nil:
		return orb.Point{*g.X, *g.Y}, nil
	}
	return nil, nil
}

func toPoints(coords [][]float64) []orb.Point {
	pts := make([]orb.Point, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			pts = append(pts, orb.Point{math.NaN(), math.NaN()})
			continue
		}
		pts = append(pts, orb.Point{c[0], c[1]})
	}
	return pts
}

func encodePolygon(p orb.Polygon) ([]byte, error) {
	rings := make([][][2]float64, 0, len(p))
	for _, r := range p {
		ring := make([][2]float64, 0, len(r))
		for _, pt := range r {
			ring = append(ring, [2]float64{pt[0], pt[1]})
		}
		rings = append(rings, ring)
	}
	return json.Marshal(esriPolygon{Rings: rings, SpatialReference: spatialReference{WKID: 4326}})
}
