// Package coinmarketcap implementa ports.PriceProvider sobre la API Pro de
// CoinMarketCap.
package coinmarketcap

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/onchainsheet/internal/adapters/httpapi"
	"github.com/alejandrodnm/onchainsheet/internal/domain"
)

const (
	mapPath    = "/v1/cryptocurrency/map"
	quotesPath = "/v1/cryptocurrency/quotes/latest"
	apiKeyHdr  = "X-CMC_PRO_API_KEY"
	convert    = "USD"
)

// Client es el cliente de CoinMarketCap.
type Client struct {
	api *httpapi.Client
}

// NewClient crea un Client. interval es la pausa mínima entre peticiones.
func NewClient(baseURL, apiKey string, interval, timeout time.Duration) *Client {
	return &Client{
		api: httpapi.New(baseURL, interval,
			httpapi.WithHeader(apiKeyHdr, apiKey),
			httpapi.WithTimeout(timeout),
		),
	}
}

// FetchListings descarga el mapa completo de tokens.
func (c *Client) FetchListings(ctx context.Context) ([]domain.Listing, error) {
	var resp mapResponse
	if err := c.api.Get(ctx, mapPath, nil, &resp); err != nil {
		return nil, fmt.Errorf("coinmarketcap.FetchListings: %w", err)
	}
	out := make([]domain.Listing, 0, len(resp.Data))
	for _, e := range resp.Data {
		out = append(out, domain.Listing{ID: e.ID, Name: e.Name, Symbol: e.Symbol, Slug: e.Slug})
	}
	slog.Debug("cmc map fetched", "listings", len(out))
	return out, nil
}

// PriceByID devuelve el precio USD del token con ese id.
func (c *Client) PriceByID(ctx context.Context, id int) (float64, error) {
	key := strconv.Itoa(id)
	price, err := c.quote(ctx, url.Values{"id": {key}}, key)
	if err != nil {
		return 0, fmt.Errorf("coinmarketcap.PriceByID: id %d: %w", id, err)
	}
	return price, nil
}

// PriceBySymbol devuelve el precio USD del ticker.
func (c *Client) PriceBySymbol(ctx context.Context, symbol string) (float64, error) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	price, err := c.quote(ctx, url.Values{"symbol": {key}}, key)
	if err != nil {
		return 0, fmt.Errorf("coinmarketcap.PriceBySymbol: %s: %w", key, err)
	}
	return price, nil
}

func (c *Client) quote(ctx context.Context, params url.Values, key string) (float64, error) {
	params.Set("convert", convert)
	var resp quotesResponse
	if err := c.api.Get(ctx, quotesPath, params, &resp); err != nil {
		return 0, err
	}
	entry, ok := resp.Data[key]
	if !ok {
		return 0, fmt.Errorf("no quote for %q", key)
	}
	usd, ok := entry.Quote[convert]
	if !ok || usd.Price == nil {
		return 0, fmt.Errorf("no %s price for %q", convert, key)
	}
	return *usd.Price, nil
}
