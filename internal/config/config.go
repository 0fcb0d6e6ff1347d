package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	CORS     CORSConfig
	Log      LogConfig
	Scoring  ScoringConfig
	Runner   RunnerConfig
	ArcGIS   ArcGISConfig
	Listings ListingsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string
	Env         string
	MaxUploadMB int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// LogConfig overrides the environment's default log level when set.
type LogConfig struct {
	Level string
}

// ScoringConfig holds the numeric parameters of the decision rule.
type ScoringConfig struct {
	SearchRadiusMiles float64
	DCPerAcreKW       float64
	DCACRatio         float64
	DECAdjBufferFt    float64
}

// RunnerConfig holds defaults for a screening run.
type RunnerConfig struct {
	SkipRemote bool
	Workers    int
}

// ArcGISConfig holds the public layer endpoints and the client's limits.
type ArcGISConfig struct {
	PortalURL           string
	UserAgent           string
	UtilityLookup       bool
	UtilityTerritoryURL string
	CivilBoundariesURL  string
	CivilBoundaryLayers []int
	DECWetlandsURL      string
	NWIWetlandsURL      string
	NGWebmapItem        string
	ColorScreening      bool
	PointTimeout        time.Duration
	PolygonTimeout      time.Duration
	WebmapTimeout       time.Duration
	MetadataTimeout     time.Duration
	RatePerSec          float64
	RateBurst           int
}

// ListingsConfig holds the listing-ingestion API credentials and filters.
type ListingsConfig struct {
	APIKey     string
	Host       string
	MinLotSqft float64
	MaxPrice   float64
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present; values
// already set in the process environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	layers, err := parseLayerIDs(v.GetString("ARCGIS_CIVIL_BOUNDARY_LAYERS"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("PORT"),
			Env:         v.GetString("ENV"),
			MaxUploadMB: v.GetInt("MAX_UPLOAD_MB"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Scoring: ScoringConfig{
			SearchRadiusMiles: v.GetFloat64("SEARCH_RADIUS_MILES"),
			DCPerAcreKW:       v.GetFloat64("DC_PER_ACRE_KW"),
			DCACRatio:         v.GetFloat64("DC_AC_RATIO"),
			DECAdjBufferFt:    v.GetFloat64("DEC_ADJ_BUFFER_FT"),
		},
		Runner: RunnerConfig{
			SkipRemote: v.GetBool("SPN_SKIP_REMOTE"),
			Workers:    v.GetInt("SCREEN_WORKERS"),
		},
		ArcGIS: ArcGISConfig{
			PortalURL:           strings.TrimRight(v.GetString("ARCGIS_PORTAL_URL"), "/"),
			UserAgent:           v.GetString("ARCGIS_USER_AGENT"),
			UtilityLookup:       v.GetBool("UTILITY_TERRITORY_LOOKUP"),
			UtilityTerritoryURL: v.GetString("ARCGIS_UTILITY_TERRITORY_URL"),
			CivilBoundariesURL:  strings.TrimRight(v.GetString("ARCGIS_CIVIL_BOUNDARIES_URL"), "/"),
			CivilBoundaryLayers: layers,
			DECWetlandsURL:      v.GetString("ARCGIS_DEC_WETLANDS_URL"),
			NWIWetlandsURL:      v.GetString("ARCGIS_NWI_WETLANDS_URL"),
			NGWebmapItem:        v.GetString("NG_WEBMAP_ITEM"),
			ColorScreening:      v.GetBool("HOSTING_COLOR_SCREENING"),
			PointTimeout:        v.GetDuration("ARCGIS_POINT_TIMEOUT"),
			PolygonTimeout:      v.GetDuration("ARCGIS_POLYGON_TIMEOUT"),
			WebmapTimeout:       v.GetDuration("ARCGIS_WEBMAP_TIMEOUT"),
			MetadataTimeout:     v.GetDuration("ARCGIS_METADATA_TIMEOUT"),
			RatePerSec:          v.GetFloat64("ARCGIS_RATE_PER_SEC"),
			RateBurst:           v.GetInt("ARCGIS_RATE_BURST"),
		},
		Listings: ListingsConfig{
			APIKey:     v.GetString("RAPIDAPI_KEY"),
			Host:       v.GetString("RAPIDAPI_HOST"),
			MinLotSqft: v.GetFloat64("LISTINGS_MIN_LOT_SQFT"),
			MaxPrice:   v.GetFloat64("LISTINGS_MAX_PRICE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("MAX_UPLOAD_MB", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:8501")
	v.SetDefault("LOG_LEVEL", "")

	v.SetDefault("SEARCH_RADIUS_MILES", 1.5)
	v.SetDefault("DC_PER_ACRE_KW", 400000.0)
	v.SetDefault("DC_AC_RATIO", 1.3)
	v.SetDefault("DEC_ADJ_BUFFER_FT", 100.0)

	v.SetDefault("SPN_SKIP_REMOTE", false)
	v.SetDefault("SCREEN_WORKERS", 4)

	v.SetDefault("ARCGIS_PORTAL_URL", "https://www.arcgis.com")
	v.SetDefault("ARCGIS_USER_AGENT", "SPN-Screener/0.1")
	v.SetDefault("UTILITY_TERRITORY_LOOKUP", false)
	v.SetDefault("ARCGIS_UTILITY_TERRITORY_URL",
		"https://services7.arcgis.com/6cx5zz3lE8WoCfhq/arcgis/rest/services/NYS_Electric_Utility_Service_Territories/FeatureServer/0")
	v.SetDefault("ARCGIS_CIVIL_BOUNDARIES_URL",
		"https://gisservices.its.ny.gov/arcgis/rest/services/NYS_Civil_Boundaries/MapServer")
	v.SetDefault("ARCGIS_CIVIL_BOUNDARY_LAYERS", "3,4,5,6")
	v.SetDefault("ARCGIS_DEC_WETLANDS_URL",
		"https://gisservices.dec.ny.gov/arcgis/rest/services/erm/erm_wetlands/MapServer/1")
	v.SetDefault("ARCGIS_NWI_WETLANDS_URL",
		"https://fwspublicservices.wim.usgs.gov/wetlandsmapservice/rest/services/Wetlands/MapServer/0")
	v.SetDefault("NG_WEBMAP_ITEM", "25aa1fb79d7b44b4be119b8753430474")
	v.SetDefault("HOSTING_COLOR_SCREENING", true)
	v.SetDefault("ARCGIS_POINT_TIMEOUT", "25s")
	v.SetDefault("ARCGIS_POLYGON_TIMEOUT", "45s")
	v.SetDefault("ARCGIS_WEBMAP_TIMEOUT", "20s")
	v.SetDefault("ARCGIS_METADATA_TIMEOUT", "15s")
	v.SetDefault("ARCGIS_RATE_PER_SEC", 5.0)
	v.SetDefault("ARCGIS_RATE_BURST", 5)

	v.SetDefault("RAPIDAPI_HOST", "realty-in-us.p.rapidapi.com")
	v.SetDefault("LISTINGS_MIN_LOT_SQFT", 217800.0)
	v.SetDefault("LISTINGS_MAX_PRICE", 5000000.0)
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_MB must be at least 1")
	}
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.Scoring.SearchRadiusMiles <= 0 {
		return fmt.Errorf("SEARCH_RADIUS_MILES must be positive")
	}
	if c.Scoring.DCPerAcreKW < 0 {
		return fmt.Errorf("DC_PER_ACRE_KW must be non-negative")
	}
	if c.Scoring.DCACRatio <= 0 {
		return fmt.Errorf("DC_AC_RATIO must be positive")
	}
	if c.Scoring.DECAdjBufferFt < 0 {
		return fmt.Errorf("DEC_ADJ_BUFFER_FT must be non-negative")
	}

	if c.Runner.Workers < 1 {
		return fmt.Errorf("SCREEN_WORKERS must be at least 1")
	}

	if c.ArcGIS.RatePerSec <= 0 {
		return fmt.Errorf("ARCGIS_RATE_PER_SEC must be positive")
	}
	if c.ArcGIS.RateBurst < 1 {
		return fmt.Errorf("ARCGIS_RATE_BURST must be at least 1")
	}
	for name, d := range map[string]time.Duration{
		"ARCGIS_POINT_TIMEOUT":    c.ArcGIS.PointTimeout,
		"ARCGIS_POLYGON_TIMEOUT":  c.ArcGIS.PolygonTimeout,
		"ARCGIS_WEBMAP_TIMEOUT":   c.ArcGIS.WebmapTimeout,
		"ARCGIS_METADATA_TIMEOUT": c.ArcGIS.MetadataTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	return splitList(origins)
}

// parseLayerIDs reads a comma-separated list of ArcGIS layer ids.
func parseLayerIDs(raw string) ([]int, error) {
	parts := splitList(raw)
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(part)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("ARCGIS_CIVIL_BOUNDARY_LAYERS has invalid layer id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return []string{}
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
