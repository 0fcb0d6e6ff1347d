package main

import (
	"fmt"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/jpgoodman17/SPN-Site-Search/internal/app"
	"github.com/jpgoodman17/SPN-Site-Search/internal/config"
	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
	"github.com/jpgoodman17/SPN-Site-Search/internal/observability"
)

var (
	cfg    *config.Config
	log    *logger.Logger
	screen *app.App
)

var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Screen New York parcels for community solar",
	Long: "Scores candidate parcels against price, acreage, buildable area, wetlands and " +
		"feeder hosting capacity using public NYS and utility ArcGIS layers.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		// stdout carries results; logs go to stderr.
		log = logger.NewWithOptions(logger.Options{
			Env:   cfg.Server.Env,
			Level: cfg.Log.Level,
			Out:   os.Stderr,
		})
		screen = app.New(cfg, log, observability.NewMetricsForTesting(), clockwork.NewRealClock())
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
