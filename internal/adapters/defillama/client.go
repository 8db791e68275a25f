// Package defillama implementa ports.TVLProvider sobre la API pública de DefiLlama.
package defillama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/alejandrodnm/onchainsheet/internal/adapters/httpapi"
	"github.com/alejandrodnm/onchainsheet/internal/domain"
)

const chainsPath = "/chains"

// Client es el cliente de DefiLlama.
type Client struct {
	api *httpapi.Client
}

// NewClient crea un Client. interval es la pausa mínima entre peticiones.
func NewClient(baseURL string, interval, timeout time.Duration) *Client {
	return &Client{api: httpapi.New(baseURL, interval, httpapi.WithTimeout(timeout))}
}

// ProtocolChainTVLs devuelve las entradas numéricas de currentChainTvls del
// protocolo. Las no numéricas se descartan.
func (c *Client) ProtocolChainTVLs(ctx context.Context, slug string) (map[string]float64, error) {
	var resp protocolResponse
	if err := c.api.Get(ctx, "/protocol/"+url.PathEscape(slug), nil, &resp); err != nil {
		return nil, fmt.Errorf("defillama.ProtocolChainTVLs: %s: %w", slug, err)
	}
	out := make(map[string]float64, len(resp.CurrentChainTvls))
	for k, raw := range resp.CurrentChainTvls {
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			slog.Debug("ignoring non-numeric chain tvl", "slug", slug, "key", k)
			continue
		}
		out[k] = v
	}
	return out, nil
}

// Chains devuelve todas las chains con su TVL actual. Se usa tvlUsd si viene
// y es distinto de cero, si no tvl.
func (c *Client) Chains(ctx context.Context) ([]domain.Chain, error) {
	var resp []chainEntry
	if err := c.api.Get(ctx, chainsPath, nil, &resp); err != nil {
		return nil, fmt.Errorf("defillama.Chains: %w", err)
	}
	out := make([]domain.Chain, 0, len(resp))
	for _, e := range resp {
		ch := domain.Chain{Name: e.Name}
		if e.TokenSymbol != nil {
			ch.TokenSymbol = *e.TokenSymbol
		}
		switch {
		case e.TVLUsd != nil && *e.TVLUsd != 0:
			ch.TVL = *e.TVLUsd
		case e.TVL != nil:
			ch.TVL = *e.TVL
		}
		out = append(out, ch)
	}
	slog.Debug("defillama chains fetched", "chains", len(out))
	return out, nil
}
