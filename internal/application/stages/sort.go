package stages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/onchainsheet/internal/domain"
	"github.com/alejandrodnm/onchainsheet/internal/resort"
)

// SortByTVL ordena cada bloque de filas con TVL numérico de mayor a menor,
// reescribiendo las referencias de fila de las fórmulas movidas.
func (s *Service) SortByTVL(ctx context.Context, in, out string) (domain.StepResult, error) {
	return s.Resort(ctx, in, out, resort.Options{
		SortColumn: s.cfg.Columns.TVL,
		StartRow:   s.cfg.StartRow,
		Policy:     s.cfg.Policy,
	})
}

// Resort es SortByTVL con columna, fila inicial y política explícitas.
func (s *Service) Resort(ctx context.Context, in, out string, opts resort.Options) (domain.StepResult, error) {
	res := domain.StepResult{Step: StepSortByTVL, Output: out}
	if opts.SortColumn < 1 || opts.StartRow < 1 {
		return res, fmt.Errorf("stages.Resort: invalid column %d or start row %d", opts.SortColumn, opts.StartRow)
	}

	wb, sh, err := s.openSheet(in, s.cfg.Sheet)
	if err != nil {
		return res, fmt.Errorf("stages.Resort: %w", err)
	}
	defer wb.Close()

	if err := ctx.Err(); err != nil {
		return res, err
	}

	res.Blocks = resort.Resort(sh, opts)
	for _, b := range res.Blocks {
		res.Updated += b.Len()
		slog.Info(fmt.Sprintf("Sorted rows %s by TVL", b))
	}
	if len(res.Blocks) == 0 {
		slog.Warn("No numeric rows to sort", "sheet", s.cfg.Sheet, "start_row", opts.StartRow)
	}

	if err := wb.SaveAs(out); err != nil {
		return res, fmt.Errorf("stages.Resort: %w", err)
	}
	slog.Info("Sorted workbook saved", "file", out, "blocks", len(res.Blocks))
	return res, nil
}
