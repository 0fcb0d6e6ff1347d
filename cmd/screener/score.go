package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
)

var (
	scoreParcel     models.ParcelInput
	scoreSkipRemote bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a single site and print the result as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := models.ValidateParcel(scoreParcel); err != nil {
			return err
		}

		opts := screen.RunOptions()
		if cmd.Flags().Changed("skip-remote") {
			opts.SkipRemote = scoreSkipRemote
		}

		res := screen.Scorer.Score(cmd.Context(), scoreParcel, opts)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(res), "score: encode result")
	},
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&scoreParcel.Address, "address", "", "street address (required)")
	f.StringVar(&scoreParcel.City, "city", "", "city")
	f.StringVar(&scoreParcel.State, "state", "NY", "state code")
	f.StringVar(&scoreParcel.Zip, "zip", "", "ZIP code")
	f.Float64Var(&scoreParcel.PriceUSD, "price", 0, "asking price in USD")
	f.Float64Var(&scoreParcel.Acres, "acres", 0, "parcel area in acres (required)")
	f.Float64Var(&scoreParcel.Lat, "lat", 0, "latitude (required)")
	f.Float64Var(&scoreParcel.Lon, "lon", 0, "longitude (required)")
	f.StringVar(&scoreParcel.ClearedHint, "cleared-hint", "", "free-text land cover hint")
	f.BoolVar(&scoreSkipRemote, "skip-remote", false, "skip every ArcGIS lookup")
	for _, name := range []string{"address", "acres", "lat", "lon"} {
		_ = scoreCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(scoreCmd)
}
