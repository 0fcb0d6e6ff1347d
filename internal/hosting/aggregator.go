// Package hosting estimates feeder hosting capacity near a site from a
// utility's published hosting capacity web map.
package hosting

import (
	"context"
	"net/url"
	"time"

	"github.com/jpgoodman17/SPN-Site-Search/internal/arcgis"
	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
)

// Config configures an Aggregator.
type Config struct {
	PortalURL       string
	WebMapItems     map[string]string // utility name to web map item id
	RadiusMiles     float64
	ColorScreening  bool
	WebmapTimeout   time.Duration
	MetadataTimeout time.Duration
	CapacityFields  []string
}

// Aggregator queries every layer of a utility's hosting map around a point.
type Aggregator interface {
	// Estimate never fails. Unknown utilities and unreachable maps report no data.
	Estimate(ctx context.Context, utility string, lon, lat float64) models.CapacityEstimate
}

type layerMeta struct {
	DrawingInfo *struct {
		Renderer *Renderer `json:"renderer"`
	} `json:"drawingInfo"`
}

type aggregator struct {
	client   arcgis.SpatialQueryClient
	resolver *LayerResolver
	cfg      Config
	log      *logger.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(client arcgis.SpatialQueryClient, cfg Config, log *logger.Logger) Aggregator {
	if cfg.WebmapTimeout <= 0 {
		cfg.WebmapTimeout = 20 * time.Second
	}
	if cfg.MetadataTimeout <= 0 {
		cfg.MetadataTimeout = 15 * time.Second
	}
	if len(cfg.CapacityFields) == 0 {
		cfg.CapacityFields = CapacityFields
	}
	return &aggregator{
		client:   client,
		resolver: NewLayerResolver(client, cfg.PortalURL, cfg.WebmapTimeout, cfg.MetadataTimeout, log),
		cfg:      cfg,
		log:      log,
	}
}

func (a *aggregator) Estimate(ctx context.Context, utility string, lon, lat float64) models.CapacityEstimate {
	itemID, ok := a.cfg.WebMapItems[utility]
	if !ok || itemID == "" {
		a.log.Debug("No hosting capacity map for utility", map[string]interface{}{
			"utility": utility,
		})
		return models.CapacityEstimate{}
	}

	layers := a.resolver.ResolveLayers(ctx, itemID)
	est := models.CapacityEstimate{LayersQueried: len(layers)}
	if len(layers) == 0 {
		return est
	}

	var rules map[string]RendererRule
	if a.cfg.ColorScreening {
		rules = a.rendererRules(ctx, layers)
	}

	var merged []arcgis.Feature
	for _, layer := range layers {
		fc := a.client.PointBuffer(ctx, layer, lon, lat, a.cfg.RadiusMiles, "*")
		if fc.Failed() {
			continue
		}
		rule := rules[layer]
		for _, f := range fc.Features {
			if rule != nil && !est.ColoredCapacityNearby && rule.Accepts(f.Attributes) {
				est.ColoredCapacityNearby = true
			}
		}
		merged = append(merged, fc.Features...)
	}

	est.FeatureCount = len(merged)
	est.BestMW, est.DistanceM, est.HasData = BestCapacity(merged, a.cfg.CapacityFields)

	a.log.Debug("Hosting capacity estimated", map[string]interface{}{
		"utility":  utility,
		"layers":   est.LayersQueried,
		"features": est.FeatureCount,
		"best_mw":  est.BestMW,
		"has_data": est.HasData,
	})
	return est
}

// rendererRules reads each layer's renderer. Layers whose metadata cannot be
// fetched or whose renderer marks nothing get no rule.
func (a *aggregator) rendererRules(ctx context.Context, layers []string) map[string]RendererRule {
	rules := make(map[string]RendererRule, len(layers))
	for _, layer := range layers {
		var meta layerMeta
		if err := a.client.FetchJSON(ctx, layer, url.Values{"f": {"pjson"}}, a.cfg.MetadataTimeout, &meta); err != nil {
			a.log.Debug("Layer metadata unavailable", map[string]interface{}{
				"layer": layer,
				"error": err.Error(),
			})
			continue
		}
		if meta.DrawingInfo == nil {
			continue
		}
		if rule, ok := ClassifyRenderer(meta.DrawingInfo.Renderer); ok {
			rules[layer] = rule
		}
	}
	return rules
}
