package models

import (
	"time"

	"github.com/paulmach/orb/geojson"
)

// DefaultUtility is assumed when no service territory lookup answers.
const DefaultUtility = "National Grid"

// Decision is the screening verdict for a site.
type Decision string

// Decisions in order of severity.
const (
	DecisionPass   Decision = "PASS"
	DecisionReview Decision = "REVIEW"
	DecisionFail   Decision = "FAIL"
)

// WetlandOverlap holds wetland acreage inside a footprint.
// DECAdjacentAcres includes the DEC wetland itself.
type WetlandOverlap struct {
	DECWetlandsAcres float64 `json:"dec_wetlands_ac"`
	DECAdjacentAcres float64 `json:"dec_adjacent_area_ac"`
	NWIAcres         float64 `json:"nwi_ac"`
}

// Total sums the three overlaps.
func (w WetlandOverlap) Total() float64 {
	return w.DECWetlandsAcres + w.DECAdjacentAcres + w.NWIAcres
}

// CapacityEstimate summarizes hosting capacity features near a site.
type CapacityEstimate struct {
	HasData               bool    `json:"has_data"`
	BestMW                float64 `json:"best_mw"`
	DistanceM             float64 `json:"distance_m"`
	ColoredCapacityNearby bool    `json:"colored_capacity_nearby"`
	LayersQueried         int     `json:"layers_queried"`
	FeatureCount          int     `json:"feature_count"`
}

// Municipality is the civil boundary containing a point.
type Municipality struct {
	Name   string `json:"name"`
	County string `json:"county"`
	Layer  string `json:"layer"`
}

// SiteResult is the scored output for one parcel.
type SiteResult struct {
	Address               string            `json:"address"`
	PriceUSD              float64           `json:"price_usd"`
	Acres                 float64           `json:"acres"`
	Lat                   float64           `json:"lat"`
	Lon                   float64           `json:"lon"`
	Utility               string            `json:"utility"`
	Municipality          string            `json:"municipality"`
	County                string            `json:"county"`
	EstClearedAcres       float64           `json:"est_cleared_acres"`
	DECWetlandsAc         float64           `json:"dec_wetlands_ac"`
	DECAdjacentAreaAc     float64           `json:"dec_adjacent_area_ac"`
	NWIAc                 float64           `json:"nwi_ac"`
	EstBuildableAcres     float64           `json:"est_buildable_acres"`
	ReqDCKW               float64           `json:"req_dc_kw"`
	ReqACMW               float64           `json:"req_ac_mw"`
	HCFeederBestMW        float64           `json:"hc_feeder_best_mw"`
	ColoredCapacityNearby bool              `json:"colored_capacity_nearby"`
	Decision              Decision          `json:"decision"`
	Notes                 string            `json:"notes"`
	Footprint             *geojson.Geometry `json:"footprint,omitempty"`
}

// RowOutcome is what a run produced for one input row: a result, or the raw
// address and the reason the row failed.
type RowOutcome struct {
	Index   int         `json:"index"`
	Result  *SiteResult `json:"result,omitempty"`
	Address string      `json:"address,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Failed reports whether the row was degraded.
func (o RowOutcome) Failed() bool {
	return o.Result == nil
}

// RunOptions are fixed for the whole of a run.
type RunOptions struct {
	SkipRemote bool `json:"skip_remote"`
	Workers    int  `json:"workers"`
}

// RunSummary describes a completed run.
type RunSummary struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Total      int              `json:"total"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	Decisions  map[Decision]int `json:"decisions"`
	SkipRemote bool             `json:"skip_remote"`
}

// Duration is the wall time of the run.
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
