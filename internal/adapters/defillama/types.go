package defillama

import "encoding/json"

// protocolResponse es la parte usada de GET /protocol/{slug}.
// currentChainTvls puede traer valores no numéricos; se decodifican en crudo.
type protocolResponse struct {
	Name             string                     `json:"name"`
	CurrentChainTvls map[string]json.RawMessage `json:"currentChainTvls"`
}

// chainEntry es un elemento de GET /chains.
type chainEntry struct {
	Name        string   `json:"name"`
	TokenSymbol *string  `json:"tokenSymbol"`
	TVL         *float64 `json:"tvl"`
	TVLUsd      *float64 `json:"tvlUsd"`
}
