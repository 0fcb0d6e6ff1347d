// Package arcgis talks to public ArcGIS REST layers: point-buffer and
// polygon-intersect feature queries plus raw JSON fetches of web map items
// and layer metadata.
package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
	"github.com/jpgoodman17/SPN-Site-Search/internal/observability"
)

// MetersPerMile converts query radii.
const MetersPerMile = 1609.344

const (
	opPointBuffer      = "point_buffer"
	opPolygonIntersect = "polygon_intersect"
	opFetchJSON        = "fetch_json"

	maxBodyBytes = 32 << 20
	snippetLen   = 200
)

// SpatialQueryClient is the boundary to remote spatial layers.
//
// PointBuffer and PolygonIntersect never return a Go error: failures come
// back as an empty FeatureCollection whose Error names the failure.
type SpatialQueryClient interface {
	// PointBuffer returns features of layerURL within radiusMiles of (lon, lat).
	PointBuffer(ctx context.Context, layerURL string, lon, lat, radiusMiles float64, outFields string) FeatureCollection

	// PolygonIntersect returns features of layerURL intersecting polygon.
	PolygonIntersect(ctx context.Context, layerURL string, polygon orb.Polygon, outFields string) FeatureCollection

	// FetchJSON GETs rawURL with params and decodes the JSON body into out.
	FetchJSON(ctx context.Context, rawURL string, params url.Values, timeout time.Duration, out interface{}) error
}

// Config holds client limits.
type Config struct {
	UserAgent      string
	PointTimeout   time.Duration
	PolygonTimeout time.Duration
	RatePerSec     float64
	RateBurst      int
}

type client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cfg        Config
	metrics    *observability.Metrics
	log        *logger.Logger
}

// NewClient creates a SpatialQueryClient. All calls made through it share one
// http.Client and one rate limiter.
func NewClient(cfg Config, metrics *observability.Metrics, log *logger.Logger) SpatialQueryClient {
	return newClient(cfg, &http.Client{}, metrics, log)
}

func newClient(cfg Config, httpClient *http.Client, metrics *observability.Metrics, log *logger.Logger) *client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "SPN-Screener/0.1"
	}
	if cfg.PointTimeout <= 0 {
		cfg.PointTimeout = 25 * time.Second
	}
	if cfg.PolygonTimeout <= 0 {
		cfg.PolygonTimeout = 45 * time.Second
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = 1
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}

	return &client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, cfg.RateBurst),
		cfg:        cfg,
		metrics:    metrics,
		log:        log,
	}
}

func (c *client) PointBuffer(ctx context.Context, layerURL string, lon, lat, radiusMiles float64, outFields string) FeatureCollection {
	params := url.Values{
		"f":              {"json"},
		"where":          {"1=1"},
		"geometry":       {formatFloat(lon) + "," + formatFloat(lat)},
		"geometryType":   {"esriGeometryPoint"},
		"inSR":           {"4326"},
		"outSR":          {"4326"},
		"spatialRel":     {"esriSpatialRelIntersects"},
		"distance":       {formatFloat(radiusMiles * MetersPerMile)},
		"units":          {"esriSRUnit_Meter"},
		"outFields":      {fieldsOrAll(outFields)},
		"returnGeometry": {"true"},
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.PointTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL(layerURL)+"?"+params.Encode(), nil)
	if err != nil {
		return c.finish(opPointBuffer, layerURL, time.Now(), requestFailed(err))
	}
	return c.query(req, opPointBuffer, layerURL)
}

func (c *client) PolygonIntersect(ctx context.Context, layerURL string, polygon orb.Polygon, outFields string) FeatureCollection {
	start := time.Now()

	geom, err := encodePolygon(polygon)
	if err != nil {
		return c.finish(opPolygonIntersect, layerURL, start, requestFailed(err))
	}

	form := url.Values{
		"f":              {"json"},
		"where":          {"1=1"},
		"geometry":       {string(geom)},
		"geometryType":   {"esriGeometryPolygon"},
		"inSR":           {"4326"},
		"outSR":          {"4326"},
		"spatialRel":     {"esriSpatialRelIntersects"},
		"outFields":      {fieldsOrAll(outFields)},
		"returnGeometry": {"true"},
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.PolygonTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, queryURL(layerURL), strings.NewReader(form.Encode()))
	if err != nil {
		return c.finish(opPolygonIntersect, layerURL, start, requestFailed(err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.query(req, opPolygonIntersect, layerURL)
}

func (c *client) FetchJSON(ctx context.Context, rawURL string, params url.Values, timeout time.Duration, out interface{}) error {
	start := time.Now()
	err := c.fetchJSON(ctx, rawURL, params, timeout, out)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.metrics.RemoteRequests.WithLabelValues(opFetchJSON, outcome).Inc()
	c.metrics.RemoteDuration.WithLabelValues(opFetchJSON).Observe(time.Since(start).Seconds())
	return err
}

func (c *client) fetchJSON(ctx context.Context, rawURL string, params url.Values, timeout time.Duration, out interface{}) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	target := rawURL
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}

	status, body, err := c.do(req)
	if err != nil {
		return eris.Wrapf(err, "fetch %s", rawURL)
	}
	if status >= http.StatusBadRequest {
		return eris.Errorf("fetch %s: status %d", rawURL, status)
	}

	var envelope struct {
		Error *serviceError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return eris.Wrapf(err, "fetch %s: non-JSON response", rawURL)
	}
	if envelope.Error != nil {
		return eris.Errorf("fetch %s: arcgis error %d: %s", rawURL, envelope.Error.Code, envelope.Error.Message)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "decode %s", rawURL)
	}
	return nil
}

func (c *client) query(req *http.Request, op, layerURL string) FeatureCollection {
	start := time.Now()

	status, body, err := c.do(req)
	if err != nil {
		return c.finish(op, layerURL, start, requestFailed(err))
	}
	if status >= http.StatusBadRequest {
		fc := emptyCollection(fmt.Sprintf("%s: status %d", MarkerRequestFailed, status))
		fc.StatusCode = status
		return c.finish(op, layerURL, start, fc)
	}

	var payload queryResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		fc := emptyCollection(MarkerNonJSON)
		fc.StatusCode = status
		fc.Snippet = snippet(body)
		return c.finish(op, layerURL, start, fc)
	}
	if payload.Error != nil {
		fc := emptyCollection(fmt.Sprintf("%s: %d %s", MarkerArcGISError, payload.Error.Code, payload.Error.Message))
		fc.StatusCode = status
		return c.finish(op, layerURL, start, fc)
	}

	features := make([]Feature, 0, len(payload.Features))
	for _, w := range payload.Features {
		features = append(features, toFeature(w))
	}
	return c.finish(op, layerURL, start, FeatureCollection{Features: features, StatusCode: status})
}

func (c *client) do(req *http.Request) (int, []byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return 0, nil, eris.Wrap(err, "rate limiter")
	}

	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, eris.Wrap(err, "read body")
	}
	return resp.StatusCode, body, nil
}

func (c *client) finish(op, layerURL string, start time.Time, fc FeatureCollection) FeatureCollection {
	outcome := "success"
	switch {
	case fc.Failed():
		outcome = "error"
	case fc.Len() == 0:
		outcome = "empty"
	}
	c.metrics.RemoteRequests.WithLabelValues(op, outcome).Inc()
	c.metrics.RemoteDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if fc.Failed() {
		c.log.Warn("Spatial query failed", map[string]interface{}{
			"operation":   op,
			"layer":       layerURL,
			"error":       fc.Error,
			"status_code": fc.StatusCode,
		})
	} else {
		c.log.Debug("Spatial query completed", map[string]interface{}{
			"operation": op,
			"layer":     layerURL,
			"features":  fc.Len(),
		})
	}
	return fc
}

func requestFailed(err error) FeatureCollection {
	return emptyCollection(fmt.Sprintf("%s: %v", MarkerRequestFailed, err))
}

func queryURL(layerURL string) string {
	return strings.TrimRight(layerURL, "/") + "/query"
}

func fieldsOrAll(fields string) string {
	if fields == "" {
		return "*"
	}
	return fields
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func snippet(body []byte) string {
	s := string(body)
	if len(s) > snippetLen {
		s = s[:snippetLen]
	}
	return s
}
