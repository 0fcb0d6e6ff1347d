package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
	"github.com/jpgoodman17/SPN-Site-Search/internal/observability"
)

// MockSiteScorer is a mock implementation of SiteScorer for testing
type MockSiteScorer struct {
	mock.Mock
}

func (m *MockSiteScorer) Score(ctx context.Context, parcel models.ParcelInput, opts models.RunOptions) models.SiteResult {
	args := m.Called(ctx, parcel, opts)
	return args.Get(0).(models.SiteResult)
}

var runStart = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func rawRow(address, price, acres, hint string) models.RawParcelRow {
	return models.RawParcelRow{
		Address:     address,
		City:        "Oswego",
		State:       "NY",
		Zip:         "13126",
		PriceUSD:    price,
		Acres:       acres,
		Lat:         "43.45",
		Lon:         "-76.5",
		ClearedHint: hint,
	}
}

func newTestRunner(scorer SiteScorer) (PipelineRunner, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClockAt(runStart)
	return NewPipelineRunner(scorer, metrics, clock, logger.Nop()), metrics
}

func offlineScorer() SiteScorer {
	return NewSiteScorer(ScorerDeps{}, testParams, logger.Nop())
}

func TestRun_OfflineMixedRows(t *testing.T) {
	// Arrange
	runner, metrics := newTestRunner(offlineScorer())
	rows := []models.RawParcelRow{
		rawRow("1 Pass Rd", "450000", "25", "majority cleared"),
		rawRow("2 Bad Rd", "450000", "lots", ""),
		rawRow("3 Small Rd", "90000", "3", ""),
		rawRow("4 Pricey Rd", "6000000", "40", "pasture"),
	}

	// Act
	outcomes, summary := runner.Run(context.Background(), rows, models.RunOptions{SkipRemote: true, Workers: 3})

	// Assert
	require.Len(t, outcomes, 4)
	for i, o := range outcomes {
		assert.Equal(t, i, o.Index)
	}

	require.False(t, outcomes[0].Failed())
	assert.Equal(t, "1 Pass Rd, Oswego, NY 13126", outcomes[0].Result.Address)
	assert.Equal(t, models.DecisionReview, outcomes[0].Result.Decision)
	assert.Equal(t, 20.0, outcomes[0].Result.EstClearedAcres)

	require.True(t, outcomes[1].Failed())
	assert.Equal(t, "2 Bad Rd", outcomes[1].Address)
	assert.Contains(t, outcomes[1].Error, "acres")

	require.False(t, outcomes[2].Failed())
	assert.Equal(t, models.DecisionFail, outcomes[2].Result.Decision)
	assert.Contains(t, outcomes[2].Result.Notes, "Acreage under 5.")

	require.False(t, outcomes[3].Failed())
	assert.Equal(t, models.DecisionFail, outcomes[3].Result.Decision)
	assert.Contains(t, outcomes[3].Result.Notes, "Price over $5M.")

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, runStart, summary.StartedAt)
	assert.Equal(t, runStart, summary.FinishedAt)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Decisions[models.DecisionReview])
	assert.Equal(t, 2, summary.Decisions[models.DecisionFail])
	assert.True(t, summary.SkipRemote)

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.RowsProcessed.WithLabelValues("scored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RowsProcessed.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Decisions.WithLabelValues("FAIL")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.RunsActive))
}

func TestRun_MissingColumnsFailEveryRow(t *testing.T) {
	runner, _ := newTestRunner(offlineScorer())
	row := rawRow("1 A St", "1", "10", "")
	row.Missing = []string{"lat"}

	outcomes, summary := runner.Run(context.Background(), []models.RawParcelRow{row, row}, models.RunOptions{SkipRemote: true})

	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.True(t, o.Failed())
		assert.Equal(t, "1 A St", o.Address)
		assert.Contains(t, o.Error, "lat")
	}
	assert.Equal(t, 2, summary.Failed)
}

func TestRun_PanicBecomesDegradedRow(t *testing.T) {
	// Arrange
	scorer := new(MockSiteScorer)
	scorer.On("Score", mock.Anything, mock.MatchedBy(func(p models.ParcelInput) bool {
		return p.Address == "boom"
	}), mock.Anything).Panic("feature decode exploded")
	scorer.On("Score", mock.Anything, mock.Anything, mock.Anything).
		Return(models.SiteResult{Address: "ok", Decision: models.DecisionPass})

	runner, metrics := newTestRunner(scorer)
	rows := []models.RawParcelRow{
		rawRow("before", "1", "10", ""),
		rawRow("boom", "1", "10", ""),
		rawRow("after", "1", "10", ""),
	}

	// Act
	outcomes, summary := runner.Run(context.Background(), rows, models.RunOptions{Workers: 2})

	// Assert
	require.Len(t, outcomes, 3)
	assert.False(t, outcomes[0].Failed())
	assert.True(t, outcomes[1].Failed())
	assert.Equal(t, "boom", outcomes[1].Address)
	assert.Equal(t, "panic: feature decode exploded", outcomes[1].Error)
	assert.False(t, outcomes[2].Failed())
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RowsProcessed.WithLabelValues("failed")))
}

func TestRun_CanceledContext(t *testing.T) {
	scorer := new(MockSiteScorer)
	runner, _ := newTestRunner(scorer)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, summary := runner.Run(ctx, []models.RawParcelRow{rawRow("1 A St", "1", "10", "")}, models.RunOptions{})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Failed())
	assert.Equal(t, context.Canceled.Error(), outcomes[0].Error)
	assert.Equal(t, 1, summary.Failed)
	scorer.AssertNotCalled(t, "Score", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_EmptyInput(t *testing.T) {
	runner, _ := newTestRunner(offlineScorer())

	outcomes, summary := runner.Run(context.Background(), nil, models.RunOptions{Workers: 4})

	assert.Empty(t, outcomes)
	assert.Equal(t, 0, summary.Total)
	assert.NotNil(t, summary.Decisions)
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	// Arrange
	build := func() SiteScorer {
		wet := new(MockWetlandEstimator)
		wet.On("Estimate", mock.Anything, mock.Anything).
			Return(models.WetlandOverlap{DECWetlandsAcres: 0.5, DECAdjacentAcres: 1.5})
		capacity := new(MockCapacityEstimator)
		capacity.On("Estimate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(models.CapacityEstimate{HasData: true, BestMW: 4000})
		munis := new(MockMunicipalityLookup)
		munis.On("Municipality", mock.Anything, mock.Anything, mock.Anything).
			Return(models.Municipality{Name: "Scriba", County: "Oswego"}, true)
		utilities := new(MockUtilityDetector)
		utilities.On("Detect", mock.Anything, mock.Anything, mock.Anything).Return("National Grid")
		return NewSiteScorer(ScorerDeps{
			Wetlands:       wet,
			Capacity:       capacity,
			Municipalities: munis,
			Utilities:      utilities,
		}, testParams, logger.Nop())
	}

	var rows []models.RawParcelRow
	for i := 0; i < 40; i++ {
		acres := fmt.Sprintf("%d", 2+i)
		if i%7 == 0 {
			acres = "n/a"
		}
		rows = append(rows, rawRow(fmt.Sprintf("%d Route %d", i, i), fmt.Sprintf("%d", 100000*i), acres, "partial"))
	}

	sequential, _ := newTestRunner(build())
	parallel, _ := newTestRunner(build())

	// Act
	seqOut, seqSummary := sequential.Run(context.Background(), rows, models.RunOptions{Workers: 1})
	parOut, parSummary := parallel.Run(context.Background(), rows, models.RunOptions{Workers: 8})

	// Assert
	assert.Equal(t, seqOut, parOut)
	assert.Equal(t, seqSummary.Decisions, parSummary.Decisions)
	assert.Equal(t, seqSummary.Failed, parSummary.Failed)
	assert.NotEqual(t, seqSummary.RunID, parSummary.RunID)
}

func TestRun_OfflineWorkedScenario(t *testing.T) {
	// Arrange
	runner, _ := newTestRunner(offlineScorer())
	rows := []models.RawParcelRow{rawRow("10 Meadow Ln", "500000", "10", "majority cleared")}

	// Act
	outcomes, summary := runner.Run(context.Background(), rows, models.RunOptions{SkipRemote: true})

	// Assert
	require.Len(t, outcomes, 1)
	require.False(t, outcomes[0].Failed())
	res := outcomes[0].Result
	assert.Equal(t, 8.0, res.EstClearedAcres)
	assert.Equal(t, 8.0, res.EstBuildableAcres)
	assert.Equal(t, 3200000.0, res.ReqDCKW)
	assert.Equal(t, 2461.538, res.ReqACMW)
	assert.Equal(t, 0.0, res.HCFeederBestMW)
	assert.Equal(t, models.DecisionReview, res.Decision)
	assert.Equal(t, CapacityNote(1.5), res.Notes)
	assert.Equal(t, 1, summary.Decisions[models.DecisionReview])
}

func TestRun_OfflineIsIdempotent(t *testing.T) {
	// Arrange
	rows := []models.RawParcelRow{
		rawRow("1 Pass Rd", "450000", "25", "majority cleared"),
		rawRow("2 Bad Rd", "450000", "lots", ""),
		rawRow("3 Odd Rd", "120000", "10.123", ""),
		rawRow("4 Pricey Rd", "6000000", "40", "pasture"),
	}
	opts := models.RunOptions{SkipRemote: true, Workers: 2}

	// Act
	first, _ := func() ([]models.RowOutcome, models.RunSummary) {
		runner, _ := newTestRunner(offlineScorer())
		return runner.Run(context.Background(), rows, opts)
	}()
	second, _ := func() ([]models.RowOutcome, models.RunSummary) {
		runner, _ := newTestRunner(offlineScorer())
		return runner.Run(context.Background(), rows, opts)
	}()

	// Assert
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Index, second[i].Index)
		assert.Equal(t, first[i].Result, second[i].Result)
		assert.Equal(t, first[i].Error, second[i].Error)
	}
}
