package app

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jpgoodman17/SPN-Site-Search/internal/arcgis/arcgistest"
	"github.com/jpgoodman17/SPN-Site-Search/internal/config"
	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
	"github.com/jpgoodman17/SPN-Site-Search/internal/observability"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "8080", Env: "test", MaxUploadMB: 1},
		CORS:   config.CORSConfig{Origins: []string{"http://localhost:3000"}},
		Scoring: config.ScoringConfig{
			SearchRadiusMiles: 1.5,
			DCPerAcreKW:       400000,
			DCACRatio:         1.3,
			DECAdjBufferFt:    100,
		},
		Runner: config.RunnerConfig{SkipRemote: true, Workers: 2},
		ArcGIS: config.ArcGISConfig{
			PortalURL:           "https://portal.example",
			CivilBoundariesURL:  "https://boundaries.example/MapServer",
			CivilBoundaryLayers: []int{3, 4},
			DECWetlandsURL:      "https://dec.example/MapServer/1",
			NWIWetlandsURL:      "https://nwi.example/MapServer/0",
			NGWebmapItem:        "abc123",
			PointTimeout:        time.Second,
			PolygonTimeout:      time.Second,
			WebmapTimeout:       time.Second,
			MetadataTimeout:     time.Second,
			RatePerSec:          10,
			RateBurst:           1,
		},
	}
}

func newTestApp(t *testing.T) (*App, *arcgistest.MockSpatialQueryClient) {
	t.Helper()
	client := new(arcgistest.MockSpatialQueryClient)
	a := newWithClient(testConfig(), logger.Nop(), observability.NewMetricsForTesting(),
		clockwork.NewFakeClockAt(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)), client)
	return a, client
}

func TestRouter_HealthAndInfo(t *testing.T) {
	// Arrange
	a, client := newTestApp(t)
	router := a.Router()

	// Act
	health := httptest.NewRecorder()
	router.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	ready := httptest.NewRecorder()
	router.ServeHTTP(ready, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	info := httptest.NewRecorder()
	router.ServeHTTP(info, httptest.NewRequest(http.MethodGet, "/api/v1/info", nil))

	// Assert
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Equal(t, http.StatusOK, ready.Code)
	assert.Contains(t, ready.Body.String(), `"arcgis":"skipped"`)
	assert.Equal(t, http.StatusOK, info.Code)
	assert.Contains(t, info.Body.String(), `"environment":"test"`)
	assert.NotEmpty(t, info.Header().Get("X-Request-ID"))
	client.AssertNotCalled(t, "FetchJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_UnknownRoute(t *testing.T) {
	a, _ := newTestApp(t)

	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"NOT_FOUND"`)
}

func TestRouter_ScoreSiteOffline(t *testing.T) {
	// Arrange
	a, client := newTestApp(t)
	body := `{"address":"1 Farm Rd","city":"Malone","state":"NY","zip":"12953",
		"price_usd":250000,"acres":40,"lat":44.85,"lon":-74.29,"cleared_hint":"open field"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sites/score", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	// Act
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var out models.RowOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotNil(t, out.Result)
	assert.Equal(t, models.DefaultUtility, out.Result.Utility)
	assert.Equal(t, models.DecisionReview, out.Result.Decision)
	assert.Contains(t, out.Result.Notes, "within 1.5 miles")
	client.AssertExpectations(t)
}

func TestRouter_ScreeningOfflineCSV(t *testing.T) {
	// Arrange
	a, _ := newTestApp(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "sites.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("address,city,state,zip,price_usd,acres,lat,lon\n" +
		"1 Farm Rd,Malone,NY,12953,6000000,40,44.85,-74.29\n" +
		"2 Bad Rd,Malone,NY,12953,abc,40,44.85,-74.29\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/screenings?format=csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	// Act
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "FAIL")
	assert.True(t, strings.HasPrefix(lines[2], "2 Bad Rd,"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "screening-")
}

func TestRunOptions(t *testing.T) {
	a, _ := newTestApp(t)
	assert.Equal(t, models.RunOptions{SkipRemote: true, Workers: 2}, a.RunOptions())
}
