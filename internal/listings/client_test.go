package listings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
)

const body = `{"listings":[
	{"address":"100 Lake Rd","price":450000,"lat":43.45,"lon":-76.5,
	 "lot_size":{"size":1089000},"address_new":{"city":"Oswego","state_code":"NY","postal_code":"13126"}},
	{"address":"Small Lot","price":90000,"lot_size":{"size":43560},"address_new":{"city":"Oswego"}},
	{"address":"Pricey","price":6000000,"lot_size":{"size":2178000},"address_new":{"city":"Oswego"}},
	{"address":"No Lot","price":10000,"address_new":{"city":"Oswego"}},
	{"address":"Edge","price":5000000,"lot_size":{"size":217800},"address_new":{"city":"Fulton","postal_code":"13069"}}
]}`

func newTestClient(url, key string) *Client {
	return NewClient(Config{
		APIKey:     key,
		Host:       "realty.test",
		BaseURL:    url,
		MinLotSqft: 217800,
		MaxPrice:   5000000,
	}, logger.Nop())
}

func TestFetch_FiltersAndMaps(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/properties/list-for-sale", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Oswego", q.Get("city"))
		assert.Equal(t, "NY", q.Get("state_code"))
		assert.Equal(t, "0", q.Get("offset"))
		assert.Equal(t, "50", q.Get("limit"))
		assert.Equal(t, "relevance", q.Get("sort"))
		assert.Equal(t, "secret", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "realty.test", r.Header.Get("X-RapidAPI-Host"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	// Act
	rows, err := newTestClient(server.URL, "secret").Fetch(context.Background(), "Oswego", "NY")

	// Assert
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.RawParcelRow{
		Address:  "100 Lake Rd",
		City:     "Oswego",
		State:    "NY",
		Zip:      "13126",
		PriceUSD: "450000",
		Acres:    "25",
		Lat:      "43.45",
		Lon:      "-76.5",
	}, rows[0])

	edge := rows[1]
	assert.Equal(t, "Edge", edge.Address)
	assert.Equal(t, "NY", edge.State)
	assert.Equal(t, "5", edge.Acres)
	assert.Equal(t, "5000000", edge.PriceUSD)
	assert.Equal(t, "", edge.Lat)
}

func TestFetch_MissingKey(t *testing.T) {
	_, err := newTestClient("http://unused.invalid", "").Fetch(context.Background(), "Oswego", "NY")

	assert.True(t, eris.Is(err, ErrMissingAPIKey))
}

func TestFetch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, "secret").Fetch(context.Background(), "Oswego", "NY")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestFetch_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>nope</html>"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, "secret").Fetch(context.Background(), "Oswego", "NY")

	assert.Error(t, err)
}
