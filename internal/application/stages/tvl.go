package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alejandrodnm/onchainsheet/internal/domain"
)

// UpdateTVL escribe el TVL de cada protocolo o chain en la columna de TVL.
// Las filas sin TVL positivo reciben "N/A" y quedan como frontera de bloque
// para la ordenación posterior.
func (s *Service) UpdateTVL(ctx context.Context, in, out string) (domain.StepResult, error) {
	res := domain.StepResult{Step: StepUpdateTVL, Output: out}
	if s.tvl == nil {
		return res, fmt.Errorf("stages.UpdateTVL: tvl provider not configured")
	}

	chains, err := s.tvl.Chains(ctx)
	if err != nil {
		return res, fmt.Errorf("stages.UpdateTVL: %w", err)
	}
	index := domain.NewChainIndex(chains)

	wb, sh, err := s.openSheet(in, s.cfg.Sheet)
	if err != nil {
		return res, fmt.Errorf("stages.UpdateTVL: %w", err)
	}
	defer wb.Close()

	cols := s.cfg.Columns
	empty := 0
	for row := s.cfg.StartRow; empty < s.cfg.StopEmptyLimit; row++ {
		symbol := sh.Cell(row, cols.Symbol).TrimmedText()
		if symbol == "" {
			empty++
			continue
		}
		empty = 0

		slug := sh.Cell(row, cols.Slug).TrimmedText()
		kind := strings.ToLower(sh.Cell(row, cols.Type).TrimmedText())
		if strings.EqualFold(slug, "slug") || kind == "type" {
			res.Skipped++
			continue
		}

		reading := domain.TVLReading{Row: row, Symbol: symbol, Slug: slug, Kind: domain.TVLKind(kind)}
		var tvl float64

		switch {
		case reading.Kind == domain.KindProtocol && slug != "":
			current, err := s.tvl.ProtocolChainTVLs(ctx, slug)
			if err != nil {
				if fatal := abort(ctx, err); fatal != nil {
					return res, fmt.Errorf("stages.UpdateTVL: row %d: %w", row, fatal)
				}
				slog.Warn("Protocol error", "row", row, "symbol", symbol, "slug", slug, "err", err)
				break
			}
			tvl = domain.ProtocolTVL(current)
			slog.Info("Protocol TVL", "symbol", symbol, "slug", slug, "tvl", fmt.Sprintf("$%.2f", tvl))

		case reading.Kind == domain.KindChain:
			c, ok := index.Lookup(slug, symbol)
			if !ok {
				lookup := slug
				if lookup == "" {
					lookup = symbol
				}
				slog.Warn("Chain not found", "row", row, "lookup", lookup)
				break
			}
			tvl = c.TVL
			slog.Info("Chain TVL", "symbol", symbol, "chain", c.Name, "tvl", fmt.Sprintf("$%.2f", tvl))

		default:
			slog.Warn("Unknown type or missing slug", "row", row, "type", kind, "slug", slug)
		}

		if tvl > 0 {
			reading.TVL = domain.RoundTVL(tvl)
			reading.Found = true
			sh.SetCell(row, cols.TVL, domain.NumberCell(reading.TVL))
			res.Updated++
		} else {
			sh.SetCell(row, cols.TVL, domain.TextCell(domain.NotAvailable))
			res.Failed++
		}
		res.TVLs = append(res.TVLs, reading)
	}

	if err := wb.SaveAs(out); err != nil {
		return res, fmt.Errorf("stages.UpdateTVL: %w", err)
	}
	slog.Info("TVL update complete", "file", out, "updated", res.Updated, "not_available", res.Failed)
	return res, nil
}
