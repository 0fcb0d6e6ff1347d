package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/jpgoodman17/SPN-Site-Search/internal/csvio"
)

var (
	ingestCity  string
	ingestState string
	ingestOut   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch for-sale land listings into a screener input CSV",
	Long: `Queries the listings API for one city, keeps lots that are large and cheap
enough to screen, and writes them in the input CSV layout used by "run".
Requires RAPIDAPI_KEY.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rows, err := screen.Listings().Fetch(cmd.Context(), ingestCity, ingestState)
		if err != nil {
			return eris.Wrap(err, "ingest: fetch listings")
		}

		out, err := os.Create(ingestOut)
		if err != nil {
			return eris.Wrap(err, "ingest: create output")
		}
		if err := csvio.WriteParcels(out, rows); err != nil {
			_ = out.Close()
			return eris.Wrap(err, "ingest: write output")
		}
		if err := out.Close(); err != nil {
			return eris.Wrap(err, "ingest: close output")
		}

		log.Info("Listings ingested", map[string]interface{}{
			"city":   ingestCity,
			"state":  ingestState,
			"rows":   len(rows),
			"output": ingestOut,
		})
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCity, "city", "", "city to search (required)")
	ingestCmd.Flags().StringVar(&ingestState, "state", "NY", "state code")
	ingestCmd.Flags().StringVar(&ingestOut, "out", "", "path to output CSV (required)")
	_ = ingestCmd.MarkFlagRequired("city")
	_ = ingestCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(ingestCmd)
}
