package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Quote es un precio en USD obtenido para la fila de un token.
type Quote struct {
	Row    int
	Symbol string
	CMCID  int // 0 si se pidió por símbolo
	Price  float64
}

// Listing es una entrada del mapa de CoinMarketCap.
type Listing struct {
	ID     int
	Name   string
	Symbol string
	Slug   string
}

// ListingIndex agrupa listings por símbolo en mayúsculas.
type ListingIndex map[string][]Listing

// NewListingIndex indexa los listings por símbolo.
func NewListingIndex(listings []Listing) ListingIndex {
	idx := make(ListingIndex, len(listings))
	for _, l := range listings {
		sym := strings.ToUpper(l.Symbol)
		idx[sym] = append(idx[sym], l)
	}
	return idx
}

// Resolve elige el id de CMC para un ticker.
// Con un solo candidato lo devuelve; con varios prefiere el que coincide en
// nombre (sin distinguir mayúsculas) y si no hay, el primero, marcando ambiguous.
// Devuelve id 0 si el ticker no está en el mapa.
func (idx ListingIndex) Resolve(ticker, name string) (id int, ambiguous bool) {
	candidates := idx[strings.ToUpper(ticker)]
	switch len(candidates) {
	case 0:
		return 0, false
	case 1:
		return candidates[0].ID, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name != "" {
		for _, c := range candidates {
			if strings.ToLower(c.Name) == name {
				return c.ID, false
			}
		}
	}
	return candidates[0].ID, true
}

// SmartRound redondea un precio: 2 decimales a partir de 0.01; por debajo,
// la primera precisión entre 4 y 12 decimales que no deje el precio en cero.
func SmartRound(price float64) float64 {
	d := decimal.NewFromFloat(price)
	if d.GreaterThanOrEqual(decimal.NewFromFloat(0.01)) {
		return d.Round(2).InexactFloat64()
	}
	places := int32(4)
	for d.Round(places).IsZero() && places < 12 {
		places++
	}
	return d.Round(places).InexactFloat64()
}
