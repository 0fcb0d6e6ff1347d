package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
	"github.com/jpgoodman17/SPN-Site-Search/internal/observability"
)

// DefaultWorkers is used when RunOptions.Workers is not positive.
const DefaultWorkers = 1

// PipelineRunner screens a batch of input rows.
type PipelineRunner interface {
	// Run returns one outcome per row in input order. A row that cannot be
	// parsed or scored becomes a degraded outcome; Run itself never fails.
	Run(ctx context.Context, rows []models.RawParcelRow, opts models.RunOptions) ([]models.RowOutcome, models.RunSummary)
}

type pipelineRunner struct {
	scorer  SiteScorer
	metrics *observability.Metrics
	clock   clockwork.Clock
	log     *logger.Logger
}

// NewPipelineRunner creates a new instance of PipelineRunner.
func NewPipelineRunner(scorer SiteScorer, metrics *observability.Metrics, clock clockwork.Clock, log *logger.Logger) PipelineRunner {
	return &pipelineRunner{
		scorer:  scorer,
		metrics: metrics,
		clock:   clock,
		log:     log,
	}
}

func (r *pipelineRunner) Run(ctx context.Context, rows []models.RawParcelRow, opts models.RunOptions) ([]models.RowOutcome, models.RunSummary) {
	summary := models.RunSummary{
		RunID:      uuid.NewString(),
		StartedAt:  r.clock.Now(),
		Total:      len(rows),
		Decisions:  map[models.Decision]int{},
		SkipRemote: opts.SkipRemote,
	}
	log := r.log.WithRun(summary.RunID)

	workers := opts.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}

	log.Info("Screening run started", map[string]interface{}{
		"rows":        len(rows),
		"workers":     workers,
		"skip_remote": opts.SkipRemote,
	})

	r.metrics.RunsActive.Inc()
	defer r.metrics.RunsActive.Dec()

	outcomes := make([]models.RowOutcome, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, row := range rows {
		g.Go(func() error {
			outcomes[i] = r.processRow(gctx, i, row, opts, log)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if o.Failed() {
			summary.Failed++
			continue
		}
		summary.Succeeded++
		summary.Decisions[o.Result.Decision]++
	}
	summary.FinishedAt = r.clock.Now()

	log.Info("Screening run complete", map[string]interface{}{
		"rows":        summary.Total,
		"succeeded":   summary.Succeeded,
		"failed":      summary.Failed,
		"pass":        summary.Decisions[models.DecisionPass],
		"review":      summary.Decisions[models.DecisionReview],
		"fail":        summary.Decisions[models.DecisionFail],
		"duration_ms": summary.Duration().Milliseconds(),
	})
	return outcomes, summary
}

// processRow parses and scores one row. Parse errors, cancellation and
// panics all produce a degraded outcome.
func (r *pipelineRunner) processRow(ctx context.Context, index int, row models.RawParcelRow, opts models.RunOptions, runLog *logger.Logger) (out models.RowOutcome) {
	start := r.clock.Now()
	log := runLog.WithRow(index, row.Address)

	defer func() {
		if p := recover(); p != nil {
			msg := fmt.Sprintf("panic: %v", p)
			log.Error("Row scoring panicked", nil, map[string]interface{}{
				"panic": msg,
			})
			out = degraded(index, row, msg)
		}
		r.record(out, r.clock.Since(start).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		return degraded(index, row, err.Error())
	}

	parcel, err := models.ParseParcelRow(row)
	if err != nil {
		log.Warn("Row rejected", map[string]interface{}{
			"error": err.Error(),
		})
		return degraded(index, row, err.Error())
	}

	res := r.scorer.Score(ctx, parcel, opts)
	return models.RowOutcome{Index: index, Result: &res}
}

func (r *pipelineRunner) record(out models.RowOutcome, seconds float64) {
	r.metrics.RowDuration.Observe(seconds)
	if out.Failed() {
		r.metrics.RowsProcessed.WithLabelValues("failed").Inc()
		return
	}
	r.metrics.RowsProcessed.WithLabelValues("scored").Inc()
	r.metrics.Decisions.WithLabelValues(string(out.Result.Decision)).Inc()
}

func degraded(index int, row models.RawParcelRow, msg string) models.RowOutcome {
	return models.RowOutcome{Index: index, Address: row.Address, Error: msg}
}
