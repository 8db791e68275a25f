package coinmarketcap

// DTOs raw de la API de CoinMarketCap. Solo se usan dentro de este paquete.

// mapResponse es la respuesta de GET /v1/cryptocurrency/map.
type mapResponse struct {
	Data []mapEntry `json:"data"`
}

type mapEntry struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Slug   string `json:"slug"`
}

// quotesResponse es la respuesta de GET /v1/cryptocurrency/quotes/latest.
// data va indexado por id o por símbolo, según cómo se pidió.
type quotesResponse struct {
	Data map[string]quoteEntry `json:"data"`
}

type quoteEntry struct {
	ID     int                  `json:"id"`
	Symbol string               `json:"symbol"`
	Quote  map[string]quoteUnit `json:"quote"`
}

type quoteUnit struct {
	Price *float64 `json:"price"`
}
