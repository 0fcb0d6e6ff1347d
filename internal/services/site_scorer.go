package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/jpgoodman17/SPN-Site-Search/internal/geometry"
	"github.com/jpgoodman17/SPN-Site-Search/internal/landcover"
	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
)

// Screening thresholds.
const (
	MaxPriceUSD = 5_000_000.0
	MinAcres    = 5.0

	// A 750 kW DC array at 400 kW per acre needs 1.875 buildable acres.
	thresholdKWPerAcre = 400.0
	minProjectKWDC     = 750.0
)

// Decision notes.
const (
	NotePriceOverLimit    = "Price over $5M."
	NoteAcreageUnderLimit = "Acreage under 5."
	NoteBuildableTooSmall = "Buildable area < 1.875 acres for 750 kW DC."
	noteCapacityFormat    = "Feeder hosting capacity may be insufficient within %s miles."
)

// WetlandEstimator measures wetland overlap with a footprint.
type WetlandEstimator interface {
	Estimate(ctx context.Context, footprint orb.Polygon) models.WetlandOverlap
}

// CapacityEstimator summarizes hosting capacity near a point.
type CapacityEstimator interface {
	Estimate(ctx context.Context, utility string, lon, lat float64) models.CapacityEstimate
}

// MunicipalityLookup finds the municipality containing a point.
type MunicipalityLookup interface {
	Municipality(ctx context.Context, lon, lat float64) (models.Municipality, bool)
}

// UtilityDetector names the utility serving a point.
type UtilityDetector interface {
	Detect(ctx context.Context, lon, lat float64) string
}

// ScoringParams are the sizing and search parameters of a run.
type ScoringParams struct {
	SearchRadiusMiles float64
	DCPerAcreKW       float64
	DCACRatio         float64
}

// ScorerDeps are the remote-backed collaborators of a SiteScorer. A nil
// dependency is treated as unavailable.
type ScorerDeps struct {
	Wetlands       WetlandEstimator
	Capacity       CapacityEstimator
	Municipalities MunicipalityLookup
	Utilities      UtilityDetector
}

// ScoreInputs is everything BuildSiteResult needs.
type ScoreInputs struct {
	Parcel       models.ParcelInput
	Utility      string
	Municipality models.Municipality
	ClearedAcres float64
	Wetlands     models.WetlandOverlap
	Capacity     models.CapacityEstimate
	Params       ScoringParams
}

// SiteScorer scores a single parsed parcel.
type SiteScorer interface {
	// Score never fails. Remote problems degrade to zero overlaps, no
	// capacity data and empty names.
	Score(ctx context.Context, parcel models.ParcelInput, opts models.RunOptions) models.SiteResult
}

type siteScorer struct {
	deps   ScorerDeps
	params ScoringParams
	log    *logger.Logger
}

// NewSiteScorer creates a new instance of SiteScorer.
func NewSiteScorer(deps ScorerDeps, params ScoringParams, log *logger.Logger) SiteScorer {
	return &siteScorer{deps: deps, params: params, log: log}
}

func (s *siteScorer) Score(ctx context.Context, parcel models.ParcelInput, opts models.RunOptions) models.SiteResult {
	footprint := geometry.SquareFootprint(parcel.Lon, parcel.Lat, parcel.Acres)
	in := ScoreInputs{
		Parcel:       parcel,
		Utility:      models.DefaultUtility,
		ClearedAcres: landcover.EstimateClearedAcres(parcel.Acres, parcel.ClearedHint),
		Params:       s.params,
	}

	if !opts.SkipRemote {
		if s.deps.Utilities != nil {
			in.Utility = s.deps.Utilities.Detect(ctx, parcel.Lon, parcel.Lat)
		}
		if s.deps.Municipalities != nil {
			if m, ok := s.deps.Municipalities.Municipality(ctx, parcel.Lon, parcel.Lat); ok {
				in.Municipality = m
			}
		}
		if s.deps.Wetlands != nil {
			in.Wetlands = s.deps.Wetlands.Estimate(ctx, footprint)
		}
		if s.deps.Capacity != nil {
			in.Capacity = s.deps.Capacity.Estimate(ctx, in.Utility, parcel.Lon, parcel.Lat)
		}
	}

	res := BuildSiteResult(in)
	res.Footprint = geojson.NewGeometry(footprint)

	s.log.Debug("Site scored", map[string]interface{}{
		"address":   res.Address,
		"decision":  res.Decision,
		"buildable": res.EstBuildableAcres,
		"best_mw":   res.HCFeederBestMW,
	})
	return res
}

// BuildSiteResult applies the sizing formulas and decision rules. Rules run
// in order and each appends its note; a PASS that collected any note becomes
// REVIEW.
func BuildSiteResult(in ScoreInputs) models.SiteResult {
	p := in.Parcel
	wet := in.Wetlands

	buildable := math.Max(in.ClearedAcres-wet.Total(), 0)
	reqDCKW := roundTo(buildable*in.Params.DCPerAcreKW, 0)
	reqACMW := roundTo(reqDCKW/(in.Params.DCACRatio*1000), 3)

	var bestMW float64
	if in.Capacity.HasData {
		bestMW = in.Capacity.BestMW
	}

	decision := models.DecisionPass
	var notes []string

	if p.PriceUSD > MaxPriceUSD {
		decision = models.DecisionFail
		notes = append(notes, NotePriceOverLimit)
	}
	if p.Acres < MinAcres {
		decision = models.DecisionFail
		notes = append(notes, NoteAcreageUnderLimit)
	}
	if buildable*thresholdKWPerAcre < minProjectKWDC {
		decision = models.DecisionFail
		notes = append(notes, NoteBuildableTooSmall)
	}
	if bestMW < reqACMW {
		if decision == models.DecisionPass {
			decision = models.DecisionReview
		}
		notes = append(notes, CapacityNote(in.Params.SearchRadiusMiles))
	}
	if decision == models.DecisionPass && len(notes) > 0 {
		decision = models.DecisionReview
	}

	return models.SiteResult{
		Address:               p.FullAddress(),
		PriceUSD:              p.PriceUSD,
		Acres:                 p.Acres,
		Lat:                   p.Lat,
		Lon:                   p.Lon,
		Utility:               in.Utility,
		Municipality:          in.Municipality.Name,
		County:                in.Municipality.County,
		EstClearedAcres:       roundTo(in.ClearedAcres, 2),
		DECWetlandsAc:         roundTo(wet.DECWetlandsAcres, 2),
		DECAdjacentAreaAc:     roundTo(wet.DECAdjacentAcres, 2),
		NWIAc:                 roundTo(wet.NWIAcres, 2),
		EstBuildableAcres:     roundTo(buildable, 2),
		ReqDCKW:               reqDCKW,
		ReqACMW:               reqACMW,
		HCFeederBestMW:        bestMW,
		ColoredCapacityNearby: in.Capacity.ColoredCapacityNearby,
		Decision:              decision,
		Notes:                 strings.Join(notes, "; "),
	}
}

// CapacityNote is the note added when nearby hosting capacity looks short.
func CapacityNote(radiusMiles float64) string {
	return fmt.Sprintf(noteCapacityFormat, strconv.FormatFloat(radiusMiles, 'f', -1, 64))
}

// roundTo rounds half to even at the given number of decimal places.
func roundTo(v float64, places int) float64 {
	if places == 0 {
		return math.RoundToEven(v)
	}
	scale := math.Pow(10, float64(places))
	return math.RoundToEven(v*scale) / scale
}
