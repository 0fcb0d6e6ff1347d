// Package app assembles the screener from configuration: the spatial client,
// the lookups built on it, the scorer and the batch runner.
package app

import (
	"github.com/jonboulle/clockwork"

	"github.com/jpgoodman17/SPN-Site-Search/internal/arcgis"
	"github.com/jpgoodman17/SPN-Site-Search/internal/boundaries"
	"github.com/jpgoodman17/SPN-Site-Search/internal/config"
	"github.com/jpgoodman17/SPN-Site-Search/internal/handlers"
	"github.com/jpgoodman17/SPN-Site-Search/internal/hosting"
	"github.com/jpgoodman17/SPN-Site-Search/internal/listings"
	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
	"github.com/jpgoodman17/SPN-Site-Search/internal/observability"
	"github.com/jpgoodman17/SPN-Site-Search/internal/services"
	"github.com/jpgoodman17/SPN-Site-Search/internal/utility"
	"github.com/jpgoodman17/SPN-Site-Search/internal/wetlands"
)

// App holds the wired components shared by the HTTP server and the CLI.
type App struct {
	Config  *config.Config
	Log     *logger.Logger
	Metrics *observability.Metrics
	Clock   clockwork.Clock

	Client arcgis.SpatialQueryClient
	Probe  handlers.ReadinessProbe
	Scorer services.SiteScorer
	Runner services.PipelineRunner
}

// New wires an App. metrics must not be nil; callers pick whether it is
// registered with the default Prometheus registry.
func New(cfg *config.Config, log *logger.Logger, metrics *observability.Metrics, clock clockwork.Clock) *App {
	client := arcgis.NewClient(arcgis.Config{
		UserAgent:      cfg.ArcGIS.UserAgent,
		PointTimeout:   cfg.ArcGIS.PointTimeout,
		PolygonTimeout: cfg.ArcGIS.PolygonTimeout,
		RatePerSec:     cfg.ArcGIS.RatePerSec,
		RateBurst:      cfg.ArcGIS.RateBurst,
	}, metrics, log)

	return newWithClient(cfg, log, metrics, clock, client)
}

func newWithClient(cfg *config.Config, log *logger.Logger, metrics *observability.Metrics, clock clockwork.Clock, client arcgis.SpatialQueryClient) *App {
	deps := services.ScorerDeps{
		Wetlands: wetlands.NewEstimator(client, wetlands.Config{
			DECLayerURL:   cfg.ArcGIS.DECWetlandsURL,
			NWILayerURL:   cfg.ArcGIS.NWIWetlandsURL,
			AdjBufferFeet: cfg.Scoring.DECAdjBufferFt,
		}, log),
		Capacity: hosting.NewAggregator(client, hosting.Config{
			PortalURL:       cfg.ArcGIS.PortalURL,
			WebMapItems:     map[string]string{models.DefaultUtility: cfg.ArcGIS.NGWebmapItem},
			RadiusMiles:     cfg.Scoring.SearchRadiusMiles,
			ColorScreening:  cfg.ArcGIS.ColorScreening,
			WebmapTimeout:   cfg.ArcGIS.WebmapTimeout,
			MetadataTimeout: cfg.ArcGIS.MetadataTimeout,
		}, log),
		Municipalities: boundaries.NewLookup(client, cfg.ArcGIS.CivilBoundariesURL, cfg.ArcGIS.CivilBoundaryLayers, log),
		Utilities:      utility.NewDetector(client, cfg.ArcGIS.UtilityTerritoryURL, cfg.ArcGIS.UtilityLookup, log),
	}

	scorer := services.NewSiteScorer(deps, services.ScoringParams{
		SearchRadiusMiles: cfg.Scoring.SearchRadiusMiles,
		DCPerAcreKW:       cfg.Scoring.DCPerAcreKW,
		DCACRatio:         cfg.Scoring.DCACRatio,
	}, log)

	return &App{
		Config:  cfg,
		Log:     log,
		Metrics: metrics,
		Clock:   clock,
		Client:  client,
		Probe:   arcgis.NewPortalProbe(client, cfg.ArcGIS.PortalURL, cfg.ArcGIS.MetadataTimeout),
		Scorer:  scorer,
		Runner:  services.NewPipelineRunner(scorer, metrics, clock, log),
	}
}

// RunOptions returns the configured defaults for a screening run.
func (a *App) RunOptions() models.RunOptions {
	return models.RunOptions{
		SkipRemote: a.Config.Runner.SkipRemote,
		Workers:    a.Config.Runner.Workers,
	}
}

// Listings returns a listing-ingestion client from configuration.
func (a *App) Listings() *listings.Client {
	return listings.NewClient(listings.Config{
		APIKey:     a.Config.Listings.APIKey,
		Host:       a.Config.Listings.Host,
		MinLotSqft: a.Config.Listings.MinLotSqft,
		MaxPrice:   a.Config.Listings.MaxPrice,
	}, a.Log)
}
