// Package listings pulls for-sale land listings from a RapidAPI realty
// endpoint and maps them to parcel input rows.
package listings

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
)

const (
	sqftPerAcre = 43560.0
	pageLimit   = 50
)

// ErrMissingAPIKey is returned when no RapidAPI key is configured.
var ErrMissingAPIKey = eris.New("RAPIDAPI_KEY not set")

// Config configures a Client.
type Config struct {
	APIKey     string
	Host       string
	BaseURL    string // defaults to https://{Host}
	MinLotSqft float64
	MaxPrice   float64
	Timeout    time.Duration
}

type listResponse struct {
	Listings []listing `json:"listings"`
}

type listing struct {
	Address string   `json:"address"`
	Price   float64  `json:"price"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	LotSize struct {
		Size float64 `json:"size"`
	} `json:"lot_size"`
	AddressNew struct {
		City       string `json:"city"`
		StateCode  string `json:"state_code"`
		PostalCode string `json:"postal_code"`
	} `json:"address_new"`
}

// Client fetches listings.
type Client struct {
	httpClient *http.Client
	cfg        Config
	log        *logger.Logger
}

// NewClient creates a Client.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://" + cfg.Host
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		log:        log,
	}
}

// Fetch returns listings in city that are large enough and cheap enough to
// screen.
func (c *Client) Fetch(ctx context.Context, city, stateCode string) ([]models.RawParcelRow, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("city", city)
	params.Set("state_code", stateCode)
	params.Set("offset", "0")
	params.Set("limit", strconv.Itoa(pageLimit))
	params.Set("sort", "relevance")
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/properties/list-for-sale?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "listings: build request")
	}
	req.Header.Set("X-RapidAPI-Key", c.cfg.APIKey)
	req.Header.Set("X-RapidAPI-Host", c.cfg.Host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "listings: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, eris.Errorf("listings: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data listResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, eris.Wrap(err, "listings: decode response")
	}

	rows := c.filter(data.Listings)
	c.log.Info("Fetched listings", map[string]interface{}{
		"city":     city,
		"state":    stateCode,
		"received": len(data.Listings),
		"kept":     len(rows),
	})
	return rows, nil
}

func (c *Client) filter(in []listing) []models.RawParcelRow {
	rows := []models.RawParcelRow{}
	for _, l := range in {
		lot := l.LotSize.Size
		if lot <= 0 || lot < c.cfg.MinLotSqft || l.Price > c.cfg.MaxPrice {
			continue
		}
		state := l.AddressNew.StateCode
		if state == "" {
			state = "NY"
		}
		rows = append(rows, models.RawParcelRow{
			Address:  l.Address,
			City:     l.AddressNew.City,
			State:    state,
			Zip:      l.AddressNew.PostalCode,
			PriceUSD: formatFloat(l.Price),
			Acres:    formatFloat(math.Round(lot/sqftPerAcre*100) / 100),
			Lat:      formatOptional(l.Lat),
			Lon:      formatOptional(l.Lon),
		})
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

