// Package resort reordena por TVL los bloques contiguos de filas de una hoja,
// reescribiendo las fórmulas para que sigan apuntando a su propia fila.
package resort

import (
	"log/slog"
	"slices"

	"github.com/alejandrodnm/onchainsheet/internal/domain"
)

// Options configura una pasada de ordenación.
type Options struct {
	SortColumn int // columna 1-based con la clave numérica (TVL)
	StartRow   int // primera fila ordenable; las anteriores son cabecera
	Policy     Policy
}

// DiscoverBlocks recorre la columna de orden desde startRow hasta MaxRow y
// devuelve las rachas maximales de filas numéricas. Un valor no numérico
// (incluida una celda vacía) cierra el bloque abierto.
func DiscoverBlocks(sheet *domain.Sheet, sortCol, startRow int) []domain.Block {
	var blocks []domain.Block
	inBlock := false
	start := 0

	for r := startRow; r <= sheet.MaxRow(); r++ {
		if sheet.Cell(r, sortCol).IsNumeric() {
			if !inBlock {
				start = r
				inBlock = true
			}
			continue
		}
		if inBlock {
			blocks = append(blocks, domain.Block{Start: start, End: r - 1})
			inBlock = false
		}
	}
	if inBlock {
		blocks = append(blocks, domain.Block{Start: start, End: sheet.MaxRow()})
	}
	return blocks
}

// capturedRow es una fila leída antes de mover el bloque.
type capturedRow struct {
	orig  int
	cells []domain.Cell
	key   float64
}

// Resort ordena cada bloque por la columna de orden, de mayor a menor, y
// devuelve los bloques encontrados. Las filas con la misma clave conservan su
// orden original. Las filas fuera de bloque no se leen ni se escriben.
//
// Las referencias entre filas movidas se reescriben por separado para cada
// fila origen: si la fila A apunta a la fila original de B y B también se
// mueve, la referencia de A queda apuntando a la posición antigua.
func Resort(sheet *domain.Sheet, opts Options) []domain.Block {
	blocks := DiscoverBlocks(sheet, opts.SortColumn, opts.StartRow)
	for _, b := range blocks {
		resortBlock(sheet, b, opts)
		slog.Debug("block resorted", "sheet", sheet.Name, "start", b.Start, "end", b.End)
	}
	return blocks
}

func resortBlock(sheet *domain.Sheet, b domain.Block, opts Options) {
	rows := make([]capturedRow, 0, b.Len())
	for orig := b.Start; orig <= b.End; orig++ {
		rows = append(rows, capturedRow{
			orig:  orig,
			cells: sheet.Row(orig),
			key:   sheet.Cell(orig, opts.SortColumn).Num,
		})
	}

	slices.SortStableFunc(rows, func(a, b capturedRow) int {
		switch {
		case a.key > b.key:
			return -1
		case a.key < b.key:
			return 1
		}
		return 0
	})

	for i, row := range rows {
		dest := b.Start + i
		for c, cell := range row.cells {
			if cell.IsFormulaText() {
				cell.Text = opts.Policy.Rewrite(cell.Text, row.orig, dest)
			}
			sheet.SetCell(dest, c+1, cell)
		}
	}
}
