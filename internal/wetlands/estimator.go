// Package wetlands measures how much of a parcel footprint overlaps mapped
// wetlands: NYS DEC informational wetlands, their regulated adjacent area,
// and the USFWS National Wetlands Inventory.
package wetlands

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	"github.com/jpgoodman17/SPN-Site-Search/internal/arcgis"
	"github.com/jpgoodman17/SPN-Site-Search/internal/geometry"
	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
)

// Config names the layers and the adjacent-area buffer.
type Config struct {
	DECLayerURL   string
	NWILayerURL   string
	AdjBufferFeet float64
	OutFields     string
}

// Estimator computes wetland overlaps for a footprint.
type Estimator interface {
	// Estimate never fails: any query or geometry problem yields zeros for
	// the affected overlaps.
	Estimate(ctx context.Context, footprint orb.Polygon) models.WetlandOverlap
}

type estimator struct {
	client arcgis.SpatialQueryClient
	cfg    Config
	log    *logger.Logger
}

// NewEstimator creates an Estimator backed by the given spatial client.
func NewEstimator(client arcgis.SpatialQueryClient, cfg Config, log *logger.Logger) Estimator {
	if cfg.OutFields == "" {
		cfg.OutFields = "*"
	}
	return &estimator{client: client, cfg: cfg, log: log}
}

func (e *estimator) Estimate(ctx context.Context, footprint orb.Polygon) models.WetlandOverlap {
	out, err := e.estimate(ctx, footprint)
	if err != nil {
		e.log.Warn("Wetland overlap computation failed; using zero overlaps", map[string]interface{}{
			"error": err.Error(),
		})
		return models.WetlandOverlap{}
	}
	return out
}

func (e *estimator) estimate(ctx context.Context, footprint orb.Polygon) (models.WetlandOverlap, error) {
	var out models.WetlandOverlap
	if err := geometry.Validate(footprint); err != nil {
		return out, eris.Wrap(err, "footprint")
	}
	bound := footprint.Bound()

	dec := e.client.PolygonIntersect(ctx, e.cfg.DECLayerURL, footprint, e.cfg.OutFields)
	decShapes, err := polygons(dec)
	if err != nil {
		return models.WetlandOverlap{}, eris.Wrap(err, "dec wetlands")
	}
	if len(decShapes) > 0 {
		area, err := geometry.UnionAreaWithin(ctx, bound, decShapes)
		if err != nil {
			return models.WetlandOverlap{}, eris.Wrap(err, "dec wetlands")
		}
		out.DECWetlandsAcres = geometry.AcresFromDegrees2(area)

		d := geometry.FeetToDegrees(e.cfg.AdjBufferFeet)
		buffered := make([]orb.Polygon, 0, len(decShapes))
		for _, shape := range decShapes {
			buffered = append(buffered, geometry.Buffer(shape, d)...)
		}
		adj, err := geometry.UnionAreaWithin(ctx, bound, buffered)
		if err != nil {
			return models.WetlandOverlap{}, eris.Wrap(err, "dec adjacent area")
		}
		out.DECAdjacentAcres = geometry.AcresFromDegrees2(adj)
	}

	nwi := e.client.PolygonIntersect(ctx, e.cfg.NWILayerURL, footprint, e.cfg.OutFields)
	nwiShapes, err := polygons(nwi)
	if err != nil {
		return models.WetlandOverlap{}, eris.Wrap(err, "nwi wetlands")
	}
	if len(nwiShapes) > 0 {
		area, err := geometry.UnionAreaWithin(ctx, bound, nwiShapes)
		if err != nil {
			return models.WetlandOverlap{}, eris.Wrap(err, "nwi wetlands")
		}
		out.NWIAcres = geometry.AcresFromDegrees2(area)
	}

	return out, nil
}

// polygons collects the polygonal geometry of a query result. Features
// without geometry and non-areal geometry are skipped; undecodable geometry
// is an error.
func polygons(fc arcgis.FeatureCollection) ([]orb.Polygon, error) {
	var shapes []orb.Polygon
	for _, f := range fc.Features {
		if f.GeometryErr != nil {
			return nil, f.GeometryErr
		}
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			shapes = append(shapes, g)
		case orb.MultiPolygon:
			shapes = append(shapes, g...)
		}
	}
	return shapes, nil
}
