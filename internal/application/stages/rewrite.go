package stages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/onchainsheet/internal/domain"
)

// RewritePrices copia los precios manuales (columna origen) sobre la columna
// destino en cada fila donde el origen es numérico. Termina tras
// StopEmptyLimit filas seguidas sin número en el origen.
func (s *Service) RewritePrices(ctx context.Context, in, out string) (domain.StepResult, error) {
	res := domain.StepResult{Step: StepRewritePrices, Output: out}

	wb, sh, err := s.openSheet(in, s.cfg.Sheet)
	if err != nil {
		return res, fmt.Errorf("stages.RewritePrices: %w", err)
	}
	defer wb.Close()

	src, dst := s.cfg.Columns.RewriteSource, s.cfg.Columns.RewriteTarget
	empty := 0
	for row := s.cfg.RewriteStartRow; empty < s.cfg.StopEmptyLimit; row++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		c := sh.Cell(row, src)
		if !c.IsNumeric() {
			empty++
			continue
		}
		empty = 0
		sh.SetCell(row, dst, domain.NumberCell(c.Num))
		res.Updated++
		slog.Debug("price rewritten", "row", row, "value", c.Num)
	}

	if err := wb.SaveAs(out); err != nil {
		return res, fmt.Errorf("stages.RewritePrices: %w", err)
	}
	slog.Info("Successfully rewrote prices", "rows", res.Updated, "file", out)
	return res, nil
}
