package stages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/onchainsheet/internal/domain"
)

const symbolsHeader = "SYMBOLS"

// UpdatePrices escribe en la columna de precio el precio USD de cada token.
// El id de CoinMarketCap se resuelve con el mapa descargado al principio; si
// el ticker no aparece en el mapa, se pide por símbolo.
func (s *Service) UpdatePrices(ctx context.Context, in, out string) (domain.StepResult, error) {
	res := domain.StepResult{Step: StepUpdatePrices, Output: out}
	if s.prices == nil {
		return res, fmt.Errorf("stages.UpdatePrices: price provider not configured")
	}

	slog.Info("Fetching CMC mapping...")
	listings, err := s.prices.FetchListings(ctx)
	if err != nil {
		return res, fmt.Errorf("stages.UpdatePrices: %w", err)
	}
	index := domain.NewListingIndex(listings)

	wb, sh, err := s.openSheet(in, s.cfg.Sheet)
	if err != nil {
		return res, fmt.Errorf("stages.UpdatePrices: %w", err)
	}
	defer wb.Close()

	cols := s.cfg.Columns
	empty := 0
	for row := s.cfg.StartRow; empty < s.cfg.StopEmptyLimit; row++ {
		symCell := sh.Cell(row, cols.Symbol)
		ticker := upperText(symCell)

		if ticker == symbolsHeader {
			empty = 0
			res.Skipped++
			continue
		}
		if ticker == "" {
			empty++
			continue
		}
		empty = 0

		id, ambiguous := index.Resolve(ticker, sh.Cell(row, cols.Name).TrimmedText())
		switch {
		case id == 0:
			slog.Warn("No CMC map entry, querying by symbol", "row", row, "symbol", ticker)
		case ambiguous:
			slog.Warn("Ambiguous ticker, using first match", "row", row, "symbol", ticker, "cmc_id", id)
		}

		var price float64
		if id != 0 {
			price, err = s.prices.PriceByID(ctx, id)
		} else {
			price, err = s.prices.PriceBySymbol(ctx, ticker)
		}
		if err != nil {
			if fatal := abort(ctx, err); fatal != nil {
				return res, fmt.Errorf("stages.UpdatePrices: row %d: %w", row, fatal)
			}
			slog.Warn("Error fetching price", "row", row, "symbol", ticker, "err", err)
			res.Failed++
			continue
		}

		sh.SetCell(row, cols.Price, domain.NumberCell(price))
		res.Updated++
		res.Quotes = append(res.Quotes, domain.Quote{Row: row, Symbol: ticker, CMCID: id, Price: price})
		slog.Info("price updated", "symbol", ticker, "price", fmt.Sprintf("$%.4f", price))
	}

	if err := wb.SaveAs(out); err != nil {
		return res, fmt.Errorf("stages.UpdatePrices: %w", err)
	}
	slog.Info("Prices updated", "file", out, "updated", res.Updated, "failed", res.Failed)
	return res, nil
}
