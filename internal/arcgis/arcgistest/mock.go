// Package arcgistest provides a testify mock of arcgis.SpatialQueryClient.
package arcgistest

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/mock"

	"github.com/jpgoodman17/SPN-Site-Search/internal/arcgis"
)

// MockSpatialQueryClient is a mock implementation of arcgis.SpatialQueryClient for testing
type MockSpatialQueryClient struct {
	mock.Mock
}

var _ arcgis.SpatialQueryClient = (*MockSpatialQueryClient)(nil)

func (m *MockSpatialQueryClient) PointBuffer(ctx context.Context, layerURL string, lon, lat, radiusMiles float64, outFields string) arcgis.FeatureCollection {
	args := m.Called(ctx, layerURL, lon, lat, radiusMiles, outFields)
	return args.Get(0).(arcgis.FeatureCollection)
}

func (m *MockSpatialQueryClient) PolygonIntersect(ctx context.Context, layerURL string, polygon orb.Polygon, outFields string) arcgis.FeatureCollection {
	args := m.Called(ctx, layerURL, polygon, outFields)
	return args.Get(0).(arcgis.FeatureCollection)
}

func (m *MockSpatialQueryClient) FetchJSON(ctx context.Context, rawURL string, params url.Values, timeout time.Duration, out interface{}) error {
	args := m.Called(ctx, rawURL, params, timeout, out)
	return args.Error(0)
}

// Respond is a Run hook for FetchJSON expectations that decodes body into the
// caller's target.
func Respond(body string) func(mock.Arguments) {
	return func(args mock.Arguments) {
		if err := json.Unmarshal([]byte(body), args.Get(4)); err != nil {
			panic(err)
		}
	}
}

// Attributes builds a successful collection of attribute-only features.
func Attributes(attrs ...map[string]interface{}) arcgis.FeatureCollection {
	fc := arcgis.FeatureCollection{Features: []arcgis.Feature{}}
	for _, a := range attrs {
		fc.Features = append(fc.Features, arcgis.Feature{Attributes: a})
	}
	return fc
}

// Polygons builds a successful collection of polygon features.
func Polygons(polys ...orb.Polygon) arcgis.FeatureCollection {
	fc := arcgis.FeatureCollection{Features: []arcgis.Feature{}}
	for _, p := range polys {
		fc.Features = append(fc.Features, arcgis.Feature{Geometry: p, Attributes: map[string]interface{}{}})
	}
	return fc
}

// Failed builds an empty collection carrying a failure marker.
func Failed(marker string) arcgis.FeatureCollection {
	return arcgis.FeatureCollection{Features: []arcgis.Feature{}, Error: marker}
}
