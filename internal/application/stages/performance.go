package stages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/onchainsheet/internal/domain"
)

const tickerHeader = "TICKER"

// PerformancePrices actualiza los precios resaltados de la hoja de rendimiento.
// Solo se tocan las filas cuya celda de precio tiene relleno sólido del color
// configurado; el precio se redondea con SmartRound.
//
// El contador de filas vacías solo se reinicia en filas resaltadas.
func (s *Service) PerformancePrices(ctx context.Context, in, out string) (domain.StepResult, error) {
	res := domain.StepResult{Step: StepPerfPrices, Output: out}
	if s.prices == nil {
		return res, fmt.Errorf("stages.PerformancePrices: price provider not configured")
	}

	pc := s.cfg.Performance
	wb, sh, err := s.openSheet(in, pc.Sheet)
	if err != nil {
		return res, fmt.Errorf("stages.PerformancePrices: %w", err)
	}
	defer wb.Close()

	empty := 0
	for row := pc.StartRow; empty < s.cfg.StopEmptyLimit; row++ {
		ticker := upperText(sh.Cell(row, pc.Symbol))
		if ticker == "" {
			empty++
			continue
		}
		if ticker == tickerHeader {
			res.Skipped++
			continue
		}

		color, err := wb.FillColor(pc.Sheet, row, pc.Price)
		if err != nil {
			return res, fmt.Errorf("stages.PerformancePrices: row %d: %w", row, err)
		}
		if color != pc.HighlightRGB {
			slog.Warn("Skipping row (not highlighted)", "row", row, "symbol", ticker)
			res.Skipped++
			continue
		}
		empty = 0

		price, err := s.prices.PriceBySymbol(ctx, ticker)
		if err != nil {
			if fatal := abort(ctx, err); fatal != nil {
				return res, fmt.Errorf("stages.PerformancePrices: row %d: %w", row, fatal)
			}
			slog.Warn("Symbol not found in CMC response", "row", row, "symbol", ticker, "err", err)
			res.Failed++
			continue
		}

		rounded := domain.SmartRound(price)
		sh.SetCell(row, pc.Price, domain.NumberCell(rounded))
		res.Updated++
		res.Quotes = append(res.Quotes, domain.Quote{Row: row, Symbol: ticker, Price: rounded})
		slog.Info("price imported", "symbol", ticker, "price", rounded)
	}

	if err := wb.SaveAs(out); err != nil {
		return res, fmt.Errorf("stages.PerformancePrices: %w", err)
	}
	slog.Info("Successfully updated prices", "file", out, "updated", res.Updated)
	return res, nil
}
