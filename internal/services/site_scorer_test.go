package services

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jpgoodman17/SPN-Site-Search/internal/geometry"
	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
)

// MockWetlandEstimator is a mock implementation of WetlandEstimator for testing
type MockWetlandEstimator struct {
	mock.Mock
}

func (m *MockWetlandEstimator) Estimate(ctx context.Context, footprint orb.Polygon) models.WetlandOverlap {
	args := m.Called(ctx, footprint)
	return args.Get(0).(models.WetlandOverlap)
}

// MockCapacityEstimator is a mock implementation of CapacityEstimator for testing
type MockCapacityEstimator struct {
	mock.Mock
}

func (m *MockCapacityEstimator) Estimate(ctx context.Context, utility string, lon, lat float64) models.CapacityEstimate {
	args := m.Called(ctx, utility, lon, lat)
	return args.Get(0).(models.CapacityEstimate)
}

// MockMunicipalityLookup is a mock implementation of MunicipalityLookup for testing
type MockMunicipalityLookup struct {
	mock.Mock
}

func (m *MockMunicipalityLookup) Municipality(ctx context.Context, lon, lat float64) (models.Municipality, bool) {
	args := m.Called(ctx, lon, lat)
	return args.Get(0).(models.Municipality), args.Bool(1)
}

// MockUtilityDetector is a mock implementation of UtilityDetector for testing
type MockUtilityDetector struct {
	mock.Mock
}

func (m *MockUtilityDetector) Detect(ctx context.Context, lon, lat float64) string {
	args := m.Called(ctx, lon, lat)
	return args.String(0)
}

var testParams = ScoringParams{SearchRadiusMiles: 1.5, DCPerAcreKW: 400000, DCACRatio: 1.3}

func parcel() models.ParcelInput {
	return models.ParcelInput{
		Address:     "123 County Rd 5",
		City:        "Oswego",
		State:       "NY",
		Zip:         "13126",
		PriceUSD:    450000,
		Acres:       25,
		Lat:         43.45,
		Lon:         -76.5,
		ClearedHint: "mostly cleared",
	}
}

func TestBuildSiteResult_Decisions(t *testing.T) {
	capacityNote := "Feeder hosting capacity may be insufficient within 1.5 miles."
	plenty := models.CapacityEstimate{HasData: true, BestMW: 6000}

	tests := []struct {
		name         string
		mutate       func(in *ScoreInputs)
		wantDecision models.Decision
		wantNotes    string
		wantDCKW     float64
		wantACMW     float64
	}{
		{
			name:         "pass with enough capacity",
			mutate:       func(in *ScoreInputs) { in.Capacity = plenty },
			wantDecision: models.DecisionPass,
			wantNotes:    "",
			wantDCKW:     7000000,
			wantACMW:     5384.615,
		},
		{
			name:         "no capacity data downgrades to review",
			mutate:       func(in *ScoreInputs) {},
			wantDecision: models.DecisionReview,
			wantNotes:    capacityNote,
			wantDCKW:     7000000,
			wantACMW:     5384.615,
		},
		{
			name: "capacity without data flag is ignored",
			mutate: func(in *ScoreInputs) {
				in.Capacity = models.CapacityEstimate{HasData: false, BestMW: 99999}
			},
			wantDecision: models.DecisionReview,
			wantNotes:    capacityNote,
			wantDCKW:     7000000,
			wantACMW:     5384.615,
		},
		{
			name: "price over limit fails",
			mutate: func(in *ScoreInputs) {
				in.Parcel.PriceUSD = 5000001
				in.Capacity = plenty
			},
			wantDecision: models.DecisionFail,
			wantNotes:    "Price over $5M.",
			wantDCKW:     7000000,
			wantACMW:     5384.615,
		},
		{
			name: "price at limit passes",
			mutate: func(in *ScoreInputs) {
				in.Parcel.PriceUSD = 5000000
				in.Capacity = plenty
			},
			wantDecision: models.DecisionPass,
			wantDCKW:     7000000,
			wantACMW:     5384.615,
		},
		{
			name: "small acreage fails",
			mutate: func(in *ScoreInputs) {
				in.Parcel.Acres = 4
				in.ClearedAcres = 2.4
				in.Capacity = plenty
			},
			wantDecision: models.DecisionFail,
			wantNotes:    "Acreage under 5.",
			wantDCKW:     960000,
			wantACMW:     738.462,
		},
		{
			name: "wetlands consume the cleared area",
			mutate: func(in *ScoreInputs) {
				in.ClearedAcres = 10
				in.Wetlands = models.WetlandOverlap{DECWetlandsAcres: 4, DECAdjacentAcres: 6, NWIAcres: 2}
			},
			wantDecision: models.DecisionFail,
			wantNotes:    "Buildable area < 1.875 acres for 750 kW DC.",
			wantDCKW:     0,
			wantACMW:     0,
		},
		{
			name: "buildable exactly at threshold",
			mutate: func(in *ScoreInputs) {
				in.ClearedAcres = 1.875
				in.Capacity = models.CapacityEstimate{HasData: true, BestMW: 1000}
			},
			wantDecision: models.DecisionPass,
			wantDCKW:     750000,
			wantACMW:     576.923,
		},
		{
			name: "every rule fires in order",
			mutate: func(in *ScoreInputs) {
				in.Parcel.PriceUSD = 6000000
				in.Parcel.Acres = 3
				in.ClearedAcres = 1
			},
			wantDecision: models.DecisionFail,
			wantNotes: "Price over $5M.; Acreage under 5.; Buildable area < 1.875 acres for 750 kW DC.; " +
				capacityNote,
			wantDCKW: 400000,
			wantACMW: 307.692,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			in := ScoreInputs{
				Parcel:       parcel(),
				Utility:      models.DefaultUtility,
				ClearedAcres: 17.5,
				Params:       testParams,
			}
			tt.mutate(&in)

			// Act
			res := BuildSiteResult(in)

			// Assert
			assert.Equal(t, tt.wantDecision, res.Decision)
			assert.Equal(t, tt.wantNotes, res.Notes)
			assert.Equal(t, tt.wantDCKW, res.ReqDCKW)
			assert.InDelta(t, tt.wantACMW, res.ReqACMW, 1e-9)
		})
	}
}

func TestBuildSiteResult_FieldsAndRounding(t *testing.T) {
	in := ScoreInputs{
		Parcel:       parcel(),
		Utility:      "NYSEG",
		Municipality: models.Municipality{Name: "Scriba", County: "Oswego"},
		ClearedAcres: 17.5,
		Wetlands:     models.WetlandOverlap{DECWetlandsAcres: 1.236, DECAdjacentAcres: 2.0004, NWIAcres: 0.5},
		Capacity:     models.CapacityEstimate{HasData: true, BestMW: 2.5, ColoredCapacityNearby: true},
		Params:       testParams,
	}

	res := BuildSiteResult(in)

	assert.Equal(t, "123 County Rd 5, Oswego, NY 13126", res.Address)
	assert.Equal(t, "NYSEG", res.Utility)
	assert.Equal(t, "Scriba", res.Municipality)
	assert.Equal(t, "Oswego", res.County)
	assert.Equal(t, 17.5, res.EstClearedAcres)
	assert.Equal(t, 1.24, res.DECWetlandsAc)
	assert.Equal(t, 2.0, res.DECAdjacentAreaAc)
	assert.Equal(t, 0.5, res.NWIAc)
	assert.Equal(t, 13.76, res.EstBuildableAcres)
	assert.Equal(t, 2.5, res.HCFeederBestMW)
	assert.True(t, res.ColoredCapacityNearby)
	assert.Nil(t, res.Footprint)
}

func TestCapacityNote(t *testing.T) {
	assert.Equal(t, "Feeder hosting capacity may be insufficient within 1.5 miles.", CapacityNote(1.5))
	assert.Equal(t, "Feeder hosting capacity may be insufficient within 2 miles.", CapacityNote(2))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 2.0, roundTo(2.5, 0))
	assert.Equal(t, 4.0, roundTo(3.5, 0))
	assert.Equal(t, 1.24, roundTo(1.236, 2))
	assert.Equal(t, 5384.615, roundTo(7000000.0/1300, 3))
}

type scorerMocks struct {
	wetlands  *MockWetlandEstimator
	capacity  *MockCapacityEstimator
	munis     *MockMunicipalityLookup
	utilities *MockUtilityDetector
}

func newScorerWithMocks() (SiteScorer, scorerMocks) {
	m := scorerMocks{
		wetlands:  new(MockWetlandEstimator),
		capacity:  new(MockCapacityEstimator),
		munis:     new(MockMunicipalityLookup),
		utilities: new(MockUtilityDetector),
	}
	s := NewSiteScorer(ScorerDeps{
		Wetlands:       m.wetlands,
		Capacity:       m.capacity,
		Municipalities: m.munis,
		Utilities:      m.utilities,
	}, testParams, logger.Nop())
	return s, m
}

func TestScore_SkipRemoteMakesNoCalls(t *testing.T) {
	// Arrange
	scorer, m := newScorerWithMocks()

	// Act
	res := scorer.Score(context.Background(), parcel(), models.RunOptions{SkipRemote: true})

	// Assert
	assert.Equal(t, models.DefaultUtility, res.Utility)
	assert.Equal(t, "", res.Municipality)
	assert.Equal(t, 17.5, res.EstClearedAcres)
	assert.Equal(t, 0.0, res.DECWetlandsAc)
	assert.Equal(t, 17.5, res.EstBuildableAcres)
	assert.Equal(t, models.DecisionReview, res.Decision)
	require.NotNil(t, res.Footprint)
	assert.Equal(t, "Polygon", res.Footprint.Type)

	m.utilities.AssertNotCalled(t, "Detect", mock.Anything, mock.Anything, mock.Anything)
	m.munis.AssertNotCalled(t, "Municipality", mock.Anything, mock.Anything, mock.Anything)
	m.wetlands.AssertNotCalled(t, "Estimate", mock.Anything, mock.Anything)
	m.capacity.AssertNotCalled(t, "Estimate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestScore_RemoteLookups(t *testing.T) {
	// Arrange
	scorer, m := newScorerWithMocks()
	p := parcel()
	footprint := geometry.SquareFootprint(p.Lon, p.Lat, p.Acres)

	m.utilities.On("Detect", mock.Anything, p.Lon, p.Lat).Return("NYSEG")
	m.munis.On("Municipality", mock.Anything, p.Lon, p.Lat).
		Return(models.Municipality{Name: "Scriba", County: "Oswego", Layer: "x/3"}, true)
	m.wetlands.On("Estimate", mock.Anything, footprint).
		Return(models.WetlandOverlap{DECWetlandsAcres: 1, DECAdjacentAcres: 2, NWIAcres: 0.5})
	m.capacity.On("Estimate", mock.Anything, "NYSEG", p.Lon, p.Lat).
		Return(models.CapacityEstimate{HasData: true, BestMW: 5000, LayersQueried: 3})

	// Act
	res := scorer.Score(context.Background(), p, models.RunOptions{})

	// Assert
	assert.Equal(t, "NYSEG", res.Utility)
	assert.Equal(t, "Scriba", res.Municipality)
	assert.Equal(t, "Oswego", res.County)
	assert.Equal(t, 14.0, res.EstBuildableAcres)
	assert.Equal(t, 5600000.0, res.ReqDCKW)
	assert.Equal(t, 4307.692, res.ReqACMW)
	assert.Equal(t, 5000.0, res.HCFeederBestMW)
	assert.Equal(t, models.DecisionPass, res.Decision)
	m.utilities.AssertExpectations(t)
	m.munis.AssertExpectations(t)
	m.wetlands.AssertExpectations(t)
	m.capacity.AssertExpectations(t)
}

func TestScore_MunicipalityNotFound(t *testing.T) {
	scorer, m := newScorerWithMocks()
	m.utilities.On("Detect", mock.Anything, mock.Anything, mock.Anything).Return(models.DefaultUtility)
	m.munis.On("Municipality", mock.Anything, mock.Anything, mock.Anything).Return(models.Municipality{}, false)
	m.wetlands.On("Estimate", mock.Anything, mock.Anything).Return(models.WetlandOverlap{})
	m.capacity.On("Estimate", mock.Anything, models.DefaultUtility, mock.Anything, mock.Anything).
		Return(models.CapacityEstimate{})

	res := scorer.Score(context.Background(), parcel(), models.RunOptions{})

	assert.Equal(t, "", res.Municipality)
	assert.Equal(t, "", res.County)
	assert.Equal(t, models.DecisionReview, res.Decision)
}

func TestScore_NilDependencies(t *testing.T) {
	scorer := NewSiteScorer(ScorerDeps{}, testParams, logger.Nop())

	res := scorer.Score(context.Background(), parcel(), models.RunOptions{})

	assert.Equal(t, models.DefaultUtility, res.Utility)
	assert.Equal(t, 17.5, res.EstBuildableAcres)
}

func TestScore_SizesFromRoundedClearedAcres(t *testing.T) {
	// Arrange
	scorer := NewSiteScorer(ScorerDeps{}, testParams, logger.Nop())
	p := parcel()
	p.Acres = 10.123
	p.ClearedHint = ""

	// Act
	res := scorer.Score(context.Background(), p, models.RunOptions{SkipRemote: true})

	// Assert
	assert.Equal(t, 6.07, res.EstClearedAcres)
	assert.Equal(t, 6.07, res.EstBuildableAcres)
	assert.Equal(t, 2428000.0, res.ReqDCKW)
	assert.Equal(t, 1867.692, res.ReqACMW)
	assert.Equal(t, res.EstBuildableAcres*testParams.DCPerAcreKW, res.ReqDCKW)
}
