package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TVLKind distingue protocolos de chains en la columna de tipo.
type TVLKind string

const (
	KindProtocol TVLKind = "protocol"
	KindChain    TVLKind = "chain"
)

// NotAvailable es el texto que se escribe cuando no hay TVL válido.
// Al no ser numérico, la fila actúa como frontera de bloque al ordenar.
const NotAvailable = "N/A"

// TVLReading es el TVL calculado para una fila.
type TVLReading struct {
	Row    int
	Symbol string
	Slug   string
	Kind   TVLKind
	TVL    float64
	Found  bool
}

// Chain es una entrada del listado de chains de DefiLlama.
type Chain struct {
	Name        string
	TokenSymbol string
	TVL         float64
}

// ChainIndex indexa chains por tokenSymbol y por nombre, ambos en mayúsculas.
type ChainIndex map[string]Chain

// NewChainIndex construye el índice. Si un nombre coincide con el símbolo de
// otra chain, gana la que aparece después en el listado.
func NewChainIndex(chains []Chain) ChainIndex {
	idx := make(ChainIndex, 2*len(chains))
	for _, c := range chains {
		if ts := strings.ToUpper(c.TokenSymbol); ts != "" {
			idx[ts] = c
		}
		if n := strings.ToUpper(c.Name); n != "" {
			idx[n] = c
		}
	}
	return idx
}

// Lookup busca primero por slug y luego por símbolo.
func (idx ChainIndex) Lookup(slug, symbol string) (Chain, bool) {
	if slug != "" {
		if c, ok := idx[strings.ToUpper(slug)]; ok {
			return c, true
		}
	}
	c, ok := idx[strings.ToUpper(symbol)]
	return c, ok
}

// ProtocolTVL agrega currentChainTvls de un protocolo: suma los depósitos por
// chain (claves sin "-" que no sean staking ni borrowed) y añade staking y borrowed.
// La suma es decimal, así que no depende del orden de iteración del mapa.
func ProtocolTVL(current map[string]float64) float64 {
	total := decimal.Zero
	for k, v := range current {
		if strings.Contains(k, "-") {
			continue
		}
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.InexactFloat64()
}

// RoundTVL redondea un TVL a 2 decimales.
func RoundTVL(tvl float64) float64 {
	return decimal.NewFromFloat(tvl).Round(2).InexactFloat64()
}
