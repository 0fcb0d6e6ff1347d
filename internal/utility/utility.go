// Package utility names the electric utility serving a site.
package utility

import (
	"context"
	"strings"

	"github.com/jpgoodman17/SPN-Site-Search/internal/arcgis"
	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
)

const pointRadiusMiles = 0.01

var nameFields = []string{"COMP_FULL", "COMP_SHORT", "UTILITY", "UTILITY_NAME", "NAME"}

// Detector answers which utility serves a point.
type Detector struct {
	client       arcgis.SpatialQueryClient
	territoryURL string
	enabled      bool
	log          *logger.Logger
}

// NewDetector creates a Detector. When enabled is false, or territoryURL is
// empty, every site is attributed to models.DefaultUtility without a query.
func NewDetector(client arcgis.SpatialQueryClient, territoryURL string, enabled bool, log *logger.Logger) *Detector {
	return &Detector{
		client:       client,
		territoryURL: territoryURL,
		enabled:      enabled && territoryURL != "",
		log:          log,
	}
}

// Detect returns the utility name for (lon, lat).
func (d *Detector) Detect(ctx context.Context, lon, lat float64) string {
	if !d.enabled {
		return models.DefaultUtility
	}

	fc := d.client.PointBuffer(ctx, d.territoryURL, lon, lat, pointRadiusMiles, "*")
	if fc.Failed() || fc.Len() == 0 {
		d.log.Debug("Service territory lookup empty; using default utility", map[string]interface{}{
			"error": fc.Error,
		})
		return models.DefaultUtility
	}

	attrs := fc.Features[0].Attributes
	for _, f := range nameFields {
		if s, ok := attrs[f].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return models.DefaultUtility
}
