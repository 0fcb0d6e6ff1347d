// Package boundaries finds the town, city or village containing a point.
package boundaries

import (
	"context"
	"strconv"
	"strings"

	"github.com/jpgoodman17/SPN-Site-Search/internal/arcgis"
	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
)

// pointRadiusMiles is the buffer used to turn a point into a query area.
const pointRadiusMiles = 0.01

var (
	nameFields   = []string{"NAME", "TOWN", "CITY", "VILLAGE"}
	countyFields = []string{"COUNTY", "COUNTY_NAME"}
)

// Lookup resolves municipalities from the NYS Civil Boundaries service.
type Lookup struct {
	client arcgis.SpatialQueryClient
	layers []string
	log    *logger.Logger
}

// NewLookup creates a Lookup over layerIDs of the map service at serviceURL.
// Layers are tried in the given order.
func NewLookup(client arcgis.SpatialQueryClient, serviceURL string, layerIDs []int, log *logger.Logger) *Lookup {
	base := strings.TrimRight(serviceURL, "/")
	layers := make([]string, 0, len(layerIDs))
	for _, id := range layerIDs {
		layers = append(layers, base+"/"+strconv.Itoa(id))
	}
	return &Lookup{client: client, layers: layers, log: log}
}

// Municipality returns the first feature found near (lon, lat). ok is false
// when no layer answers with a feature.
func (l *Lookup) Municipality(ctx context.Context, lon, lat float64) (models.Municipality, bool) {
	for _, layer := range l.layers {
		fc := l.client.PointBuffer(ctx, layer, lon, lat, pointRadiusMiles, "*")
		if fc.Failed() || fc.Len() == 0 {
			continue
		}
		attrs := fc.Features[0].Attributes
		return models.Municipality{
			Name:   firstString(attrs, nameFields),
			County: firstString(attrs, countyFields),
			Layer:  layer,
		}, true
	}

	l.log.Debug("No municipality found", map[string]interface{}{
		"lon": lon,
		"lat": lat,
	})
	return models.Municipality{}, false
}

func firstString(attrs map[string]interface{}, fields []string) string {
	for _, f := range fields {
		if s, ok := attrs[f].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
