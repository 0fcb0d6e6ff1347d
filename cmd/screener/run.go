package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/jpgoodman17/SPN-Site-Search/internal/csvio"
	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
)

var (
	runIn         string
	runOut        string
	runSkipRemote bool
	runWorkers    int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Screen every parcel in a CSV file",
	Long: `Reads parcels from --in, scores each one and writes one output row per input
row to --out (stdout when omitted). Rows that cannot be parsed or scored are
written with only the address and the error.

Examples:
  # Offline, no ArcGIS queries
  screener run --in sites.csv --out results.csv --skip-remote

  # Four parallel workers
  screener run --in sites.csv --out results.csv --workers 4`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		in, err := os.Open(runIn)
		if err != nil {
			return eris.Wrap(err, "run: open input")
		}
		defer in.Close()

		rows, err := csvio.ReadParcels(in)
		if err != nil {
			return eris.Wrap(err, "run: read input")
		}

		opts := screen.RunOptions()
		if cmd.Flags().Changed("skip-remote") {
			opts.SkipRemote = runSkipRemote
		}
		if cmd.Flags().Changed("workers") {
			opts.Workers = runWorkers
		}

		outcomes, summary := screen.Runner.Run(cmd.Context(), rows, opts)

		if err := writeOutcomes(runOut, cmd.OutOrStdout(), outcomes); err != nil {
			return err
		}

		log.Info("Screening complete", map[string]interface{}{
			"run_id":      summary.RunID,
			"rows":        summary.Total,
			"succeeded":   summary.Succeeded,
			"failed":      summary.Failed,
			"pass":        summary.Decisions[models.DecisionPass],
			"review":      summary.Decisions[models.DecisionReview],
			"fail":        summary.Decisions[models.DecisionFail],
			"duration_ms": summary.Duration().Milliseconds(),
			"output":      runOut,
		})
		return nil
	},
}

func writeOutcomes(path string, stdout io.Writer, outcomes []models.RowOutcome) error {
	if path == "" {
		return eris.Wrap(csvio.WriteOutcomes(stdout, outcomes), "run: write output")
	}

	out, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "run: create output")
	}
	if err := csvio.WriteOutcomes(out, outcomes); err != nil {
		_ = out.Close()
		return eris.Wrap(err, "run: write output")
	}
	return eris.Wrap(out.Close(), "run: close output")
}

func init() {
	runCmd.Flags().StringVar(&runIn, "in", "", "path to input parcel CSV (required)")
	runCmd.Flags().StringVar(&runOut, "out", "", "path to output CSV (default: stdout)")
	runCmd.Flags().BoolVar(&runSkipRemote, "skip-remote", false, "skip every ArcGIS lookup (overrides SPN_SKIP_REMOTE)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 1, "rows scored concurrently (overrides SCREEN_WORKERS)")
	_ = runCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(runCmd)
}
