// Package xlsx carga y guarda hojas de cálculo usando excelize.
package xlsx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/alejandrodnm/onchainsheet/internal/domain"
	"github.com/alejandrodnm/onchainsheet/internal/ports"
	"github.com/xuri/excelize/v2"
)

// Opener implementa ports.WorkbookOpener.
type Opener struct{}

// NewOpener crea un Opener.
func NewOpener() Opener { return Opener{} }

// Open implementa ports.WorkbookOpener.
func (Opener) Open(path string) (ports.Workbook, error) {
	wb, err := Open(path)
	if err != nil {
		return nil, err
	}
	return wb, nil
}

// Workbook es un fichero xlsx abierto. Las hojas se cargan bajo demanda y se
// recuerdan para que SaveAs pueda volcar sus cambios.
type Workbook struct {
	path     string
	f        *excelize.File
	sheets   map[string]*domain.Sheet
	formulas map[string]map[domain.CellPos]string // fórmulas del fichero, sin "="
}

// Open abre el workbook en path.
func Open(path string) (*Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("xlsx.Open: %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("xlsx.Open: stat %q: %w", path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlsx.Open: %s: %w: %w", path, ErrParse, err)
	}
	return &Workbook{
		path:     path,
		f:        f,
		sheets:   make(map[string]*domain.Sheet),
		formulas: make(map[string]map[domain.CellPos]string),
	}, nil
}

// Sheet implementa ports.Workbook.
func (wb *Workbook) Sheet(name string) (*domain.Sheet, error) {
	if s, ok := wb.sheets[name]; ok {
		return s, nil
	}
	if !slices.Contains(wb.f.GetSheetList(), name) {
		return nil, fmt.Errorf("xlsx.Sheet: %q in %s: %w", name, filepath.Base(wb.path), ErrSheetMissing)
	}

	s, err := wb.loadSheet(name)
	if err != nil {
		return nil, fmt.Errorf("xlsx.Sheet: %q: %w", name, err)
	}
	wb.sheets[name] = s
	return s, nil
}

// loadSheet lee todas las celdas de la hoja en una domain.Sheet.
func (wb *Workbook) loadSheet(name string) (*domain.Sheet, error) {
	rows, err := wb.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	maxRow, maxCol := len(rows), 0
	for _, row := range rows {
		maxCol = max(maxCol, len(row))
	}
	// GetRows recorta las celdas vacías del final; la dimensión declarada
	// cubre fórmulas sin valor cacheado.
	if dr, dc, ok := wb.dimension(name); ok {
		maxRow, maxCol = max(maxRow, dr), max(maxCol, dc)
	}

	s := domain.NewSheet(name, maxRow, maxCol)
	formulas := make(map[domain.CellPos]string)
	for r := 1; r <= maxRow; r++ {
		var row []string
		if r <= len(rows) {
			row = rows[r-1]
		}
		for c := 1; c <= maxCol; c++ {
			raw := ""
			if c <= len(row) {
				raw = row[c-1]
			}
			cell, err := wb.readCell(name, r, c, raw)
			if err != nil {
				return nil, err
			}
			if cell.Kind == domain.CellFormula {
				formulas[domain.CellPos{Row: r, Col: c}] = strings.TrimPrefix(cell.Text, "=")
			}
			if !cell.IsEmpty() {
				s.Load(r, c, cell)
			}
		}
	}
	wb.formulas[name] = formulas

	slog.Debug("sheet loaded", "sheet", name, "rows", maxRow, "cols", maxCol)
	return s, nil
}

// readCell clasifica una celda a partir de su fórmula, su tipo y su valor crudo.
func (wb *Workbook) readCell(sheet string, row, col int, raw string) (domain.Cell, error) {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return domain.Cell{}, err
	}

	formula, err := wb.f.GetCellFormula(sheet, ref)
	if err != nil {
		return domain.Cell{}, fmt.Errorf("formula %s: %w", ref, err)
	}
	if formula != "" {
		return domain.FormulaCell(formula), nil
	}
	if raw == "" {
		return domain.Cell{}, nil
	}

	typ, err := wb.f.GetCellType(sheet, ref)
	if err != nil {
		return domain.Cell{}, fmt.Errorf("type %s: %w", ref, err)
	}
	switch typ {
	case excelize.CellTypeBool:
		return domain.Cell{Kind: domain.CellBool, Bool: raw == "1" || strings.EqualFold(raw, "true")}, nil
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return domain.TextCell(raw), nil
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return domain.NumberCell(v), nil
	}
	return domain.TextCell(raw), nil
}

// dimension devuelve la última fila y columna de la dimensión declarada.
func (wb *Workbook) dimension(sheet string) (int, int, bool) {
	ref, err := wb.f.GetSheetDimension(sheet)
	if err != nil || ref == "" {
		return 0, 0, false
	}
	parts := strings.Split(ref, ":")
	col, row, err := excelize.CellNameToCoordinates(parts[len(parts)-1])
	if err != nil {
		return 0, 0, false
	}
	return row, col, true
}

// FillColor implementa ports.Workbook.
func (wb *Workbook) FillColor(sheet string, row, col int) (string, error) {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", fmt.Errorf("xlsx.FillColor: %w", err)
	}
	styleID, err := wb.f.GetCellStyle(sheet, ref)
	if err != nil {
		return "", fmt.Errorf("xlsx.FillColor: style of %s: %w", ref, err)
	}
	style, err := wb.f.GetStyle(styleID)
	if err != nil || style == nil {
		return "", nil
	}
	fill := style.Fill
	if fill.Type != "pattern" || fill.Pattern != 1 || len(fill.Color) == 0 {
		return "", nil
	}
	return NormalizeRGB(fill.Color[0]), nil
}

// NormalizeRGB deja un color en 6 dígitos hex en mayúsculas, sin "#" ni canal alfa.
func NormalizeRGB(c string) string {
	c = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(c), "#"))
	if len(c) == 8 {
		c = c[2:]
	}
	if len(c) != 6 {
		return ""
	}
	return c
}

// SaveAs implementa ports.Workbook.
func (wb *Workbook) SaveAs(path string) error {
	written, formulas := 0, 0
	for name, s := range wb.sheets {
		dirty := s.Dirty()
		if len(dirty) == 0 {
			continue
		}
		restored, err := wb.detachFormulas(name, dirty)
		if err != nil {
			return fmt.Errorf("xlsx.SaveAs: %w", err)
		}
		formulas += restored

		for _, p := range dirty {
			c := s.Cell(p.Row, p.Col)
			isFormula, err := wb.writeCell(name, p, c)
			if err != nil {
				return fmt.Errorf("xlsx.SaveAs: %w", err)
			}
			written++
			if isFormula {
				formulas++
				wb.formulas[name][p] = strings.TrimPrefix(c.Text, "=")
			} else {
				delete(wb.formulas[name], p)
			}
		}
	}

	if formulas > 0 {
		// Los valores cacheados de las fórmulas movidas quedan obsoletos.
		recalc := true
		if err := wb.f.SetCalcProps(&excelize.CalcPropsOptions{FullCalcOnLoad: &recalc}); err != nil {
			return fmt.Errorf("xlsx.SaveAs: calc props: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("xlsx.SaveAs: mkdir: %w", err)
	}
	if err := wb.f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx.SaveAs: %s: %w", path, err)
	}
	for _, s := range wb.sheets {
		s.ClearDirty()
	}

	slog.Debug("workbook saved", "path", path, "cells", written, "formulas", formulas)
	return nil
}

// detachFormulas saca de su grupo de fórmula compartida cada celda que se va a
// escribir. Una celda dependiente ignora su propio texto y deriva la fórmula de
// la maestra, y borrar la maestra borra también todas sus dependientes; las
// fórmulas que se pierden así se reescriben como fórmulas normales con el texto
// leído al cargar. Devuelve cuántas se reescribieron.
func (wb *Workbook) detachFormulas(sheet string, dirty []domain.CellPos) (int, error) {
	loaded := wb.formulas[sheet]
	pending := make(map[domain.CellPos]bool, len(dirty))
	for _, p := range dirty {
		pending[p] = true
		if _, ok := loaded[p]; !ok {
			continue
		}
		ref, err := excelize.CoordinatesToCellName(p.Col, p.Row)
		if err != nil {
			return 0, err
		}
		if err := wb.f.SetCellFormula(sheet, ref, ""); err != nil {
			return 0, fmt.Errorf("detach formula %s!%s: %w", sheet, ref, err)
		}
	}

	restored := 0
	for p, formula := range loaded {
		if pending[p] {
			continue
		}
		ref, err := excelize.CoordinatesToCellName(p.Col, p.Row)
		if err != nil {
			return 0, err
		}
		current, err := wb.f.GetCellFormula(sheet, ref)
		if err != nil {
			return 0, fmt.Errorf("formula %s!%s: %w", sheet, ref, err)
		}
		if current == formula {
			continue
		}
		if err := wb.f.SetCellFormula(sheet, ref, formula); err != nil {
			return 0, fmt.Errorf("restore formula %s!%s: %w", sheet, ref, err)
		}
		restored++
	}
	if restored > 0 {
		slog.Debug("shared formulas expanded", "sheet", sheet, "cells", restored)
	}
	return restored, nil
}

// writeCell vuelca una celda al fichero. Devuelve true si escribió una fórmula.
func (wb *Workbook) writeCell(sheet string, p domain.CellPos, c domain.Cell) (bool, error) {
	ref, err := excelize.CoordinatesToCellName(p.Col, p.Row)
	if err != nil {
		return false, err
	}

	if c.Kind == domain.CellFormula {
		if err := wb.f.SetCellFormula(sheet, ref, strings.TrimPrefix(c.Text, "=")); err != nil {
			return false, fmt.Errorf("formula %s!%s: %w", sheet, ref, err)
		}
		return true, nil
	}

	// Una fórmula previa en la celda taparía el nuevo valor.
	if prev, _ := wb.f.GetCellFormula(sheet, ref); prev != "" {
		if err := wb.f.SetCellFormula(sheet, ref, ""); err != nil {
			return false, fmt.Errorf("clear formula %s!%s: %w", sheet, ref, err)
		}
	}

	switch c.Kind {
	case domain.CellNumber:
		err = wb.f.SetCellFloat(sheet, ref, c.Num, -1, 64)
	case domain.CellText:
		err = wb.f.SetCellStr(sheet, ref, c.Text)
	case domain.CellBool:
		err = wb.f.SetCellBool(sheet, ref, c.Bool)
	default:
		err = wb.f.SetCellValue(sheet, ref, nil)
	}
	if err != nil {
		return false, fmt.Errorf("value %s!%s: %w", sheet, ref, err)
	}
	return false, nil
}

// Close implementa ports.Workbook.
func (wb *Workbook) Close() error {
	return wb.f.Close()
}
