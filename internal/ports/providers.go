package ports

import (
	"context"
	"errors"

	"github.com/alejandrodnm/onchainsheet/internal/domain"
)

// ErrUnauthorized indica que la API rechazó las credenciales. Ningún paso
// puede continuar fila a fila después de esto.
var ErrUnauthorized = errors.New("api rejected credentials")

// PriceProvider obtiene precios en USD de tokens (CoinMarketCap).
type PriceProvider interface {
	// FetchListings devuelve el mapa completo de tokens.
	FetchListings(ctx context.Context) ([]domain.Listing, error)
	// PriceByID devuelve el precio USD para un id.
	PriceByID(ctx context.Context, id int) (float64, error)
	// PriceBySymbol devuelve el precio USD para un ticker.
	PriceBySymbol(ctx context.Context, symbol string) (float64, error)
}

// TVLProvider obtiene TVL de protocolos y chains (DefiLlama).
type TVLProvider interface {
	// ProtocolChainTVLs devuelve currentChainTvls del protocolo.
	ProtocolChainTVLs(ctx context.Context, slug string) (map[string]float64, error)
	// Chains devuelve todas las chains con su TVL actual.
	Chains(ctx context.Context) ([]domain.Chain, error)
}
