package coinmarketcap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alejandrodnm/onchainsheet/internal/adapters/coinmarketcap"
	"github.com/alejandrodnm/onchainsheet/internal/adapters/httpapi"
	"github.com/alejandrodnm/onchainsheet/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../../testdata/fixtures/" + name)
	require.NoError(t, err)
	return data
}

func newTestClient(srv *httptest.Server) *coinmarketcap.Client {
	return coinmarketcap.NewClient(srv.URL, "test-key", 0, time.Second)
}

func TestFetchListings_Success(t *testing.T) {
	data := fixture(t, "cmc_map.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/cryptocurrency/map", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-CMC_PRO_API_KEY"))
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
	defer srv.Close()

	listings, err := newTestClient(srv).FetchListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 4)
	assert.Equal(t, domain.Listing{ID: 1, Name: "Bitcoin", Symbol: "BTC", Slug: "bitcoin"}, listings[0])

	idx := domain.NewListingIndex(listings)
	id, ambiguous := idx.Resolve("aave", "aave wrapped")
	assert.Equal(t, 28321, id)
	assert.False(t, ambiguous)
}

func TestPriceByID(t *testing.T) {
	data := fixture(t, "cmc_quotes_id.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/cryptocurrency/quotes/latest", r.URL.Path)
		assert.Equal(t, "7278", r.URL.Query().Get("id"))
		assert.Equal(t, "USD", r.URL.Query().Get("convert"))
		assert.Empty(t, r.URL.Query().Get("symbol"))
		w.Write(data)
	}))
	defer srv.Close()

	price, err := newTestClient(srv).PriceByID(context.Background(), 7278)
	require.NoError(t, err)
	assert.InDelta(t, 312.4567, price, 1e-9)
}

func TestPriceBySymbol(t *testing.T) {
	data := fixture(t, "cmc_quotes_symbol.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PEPE", r.URL.Query().Get("symbol"))
		w.Write(data)
	}))
	defer srv.Close()

	price, err := newTestClient(srv).PriceBySymbol(context.Background(), " pepe ")
	require.NoError(t, err)
	assert.InDelta(t, 0.00000912345, price, 1e-15)
}

func TestPrice_MissingEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).PriceByID(context.Background(), 99)
	assert.ErrorContains(t, err, `no quote for "99"`)
}

func TestPrice_NullPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"BTC":{"quote":{"USD":{"price":null}}}}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).PriceBySymbol(context.Background(), "BTC")
	assert.ErrorContains(t, err, "no USD price")
}

func TestFetchListings_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":{"error_code":1002,"error_message":"API key missing."}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchListings(context.Background())
	var se *httpapi.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
}
