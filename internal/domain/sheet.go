package domain

import (
	"sort"
	"strconv"
	"strings"
)

// CellKind clasifica el valor de una celda.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellText
	CellFormula
	CellBool
)

// String devuelve el nombre del tipo de celda.
func (k CellKind) String() string {
	switch k {
	case CellNumber:
		return "number"
	case CellText:
		return "text"
	case CellFormula:
		return "formula"
	case CellBool:
		return "bool"
	default:
		return "empty"
	}
}

// Cell es el valor de una celda del workbook.
// Las fórmulas se guardan en Text con el prefijo "=".
type Cell struct {
	Kind CellKind
	Num  float64
	Text string
	Bool bool
}

// NumberCell crea una celda numérica.
func NumberCell(v float64) Cell { return Cell{Kind: CellNumber, Num: v} }

// TextCell crea una celda de texto.
func TextCell(s string) Cell { return Cell{Kind: CellText, Text: s} }

// FormulaCell crea una celda con fórmula. Acepta el cuerpo con o sin "=".
func FormulaCell(f string) Cell {
	if !strings.HasPrefix(f, "=") {
		f = "=" + f
	}
	return Cell{Kind: CellFormula, Text: f}
}

// IsEmpty devuelve true si la celda no tiene valor.
func (c Cell) IsEmpty() bool { return c.Kind == CellEmpty }

// IsNumeric devuelve true si la celda contiene un número.
// Los booleanos no cuentan como numéricos.
func (c Cell) IsNumeric() bool { return c.Kind == CellNumber }

// IsFormulaText devuelve true si el valor es texto que empieza por "=":
// tanto fórmulas reales como texto plano que lo parece.
func (c Cell) IsFormulaText() bool {
	return (c.Kind == CellFormula || c.Kind == CellText) && strings.HasPrefix(c.Text, "=")
}

// String devuelve el valor de la celda como texto (útil en logs).
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case CellText, CellFormula:
		return c.Text
	case CellBool:
		return strconv.FormatBool(c.Bool)
	default:
		return ""
	}
}

// TrimmedText devuelve el texto de la celda sin espacios, o "" si la celda
// no contiene texto. Los números se formatean como texto.
func (c Cell) TrimmedText() string {
	return strings.TrimSpace(c.String())
}

// CellPos es una coordenada 1-based (fila, columna).
type CellPos struct {
	Row int
	Col int
}

// Sheet es una hoja en memoria, direccionada 1-based.
// Registra las celdas escritas desde la carga para que el writer solo
// toque lo que cambió.
type Sheet struct {
	Name   string
	rows   [][]Cell
	maxCol int
	dirty  map[CellPos]struct{}
}

// NewSheet crea una hoja vacía con las dimensiones dadas.
func NewSheet(name string, maxRow, maxCol int) *Sheet {
	s := &Sheet{
		Name:   name,
		rows:   make([][]Cell, maxRow),
		maxCol: maxCol,
		dirty:  make(map[CellPos]struct{}),
	}
	for i := range s.rows {
		s.rows[i] = make([]Cell, maxCol)
	}
	return s
}

// MaxRow devuelve el índice de la última fila declarada.
func (s *Sheet) MaxRow() int { return len(s.rows) }

// MaxCol devuelve el índice de la última columna declarada.
func (s *Sheet) MaxCol() int { return s.maxCol }

// Cell devuelve la celda en (row, col). Fuera de rango devuelve una celda vacía.
func (s *Sheet) Cell(row, col int) Cell {
	if row < 1 || row > len(s.rows) || col < 1 || col > s.maxCol {
		return Cell{}
	}
	return s.rows[row-1][col-1]
}

// Load escribe una celda sin marcarla como modificada. Lo usa el loader.
func (s *Sheet) Load(row, col int, c Cell) {
	s.grow(row, col)
	s.rows[row-1][col-1] = c
}

// SetCell escribe una celda y la marca como modificada.
// Si la coordenada excede las dimensiones, la hoja crece.
func (s *Sheet) SetCell(row, col int, c Cell) {
	if row < 1 || col < 1 {
		return
	}
	s.grow(row, col)
	s.rows[row-1][col-1] = c
	s.dirty[CellPos{Row: row, Col: col}] = struct{}{}
}

// Row devuelve una copia de las celdas de la fila 1..MaxCol.
func (s *Sheet) Row(row int) []Cell {
	out := make([]Cell, s.maxCol)
	if row >= 1 && row <= len(s.rows) {
		copy(out, s.rows[row-1])
	}
	return out
}

// Dirty devuelve las celdas modificadas, ordenadas por fila y columna.
func (s *Sheet) Dirty() []CellPos {
	out := make([]CellPos, 0, len(s.dirty))
	for p := range s.dirty {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// ClearDirty olvida las modificaciones registradas (tras guardar).
func (s *Sheet) ClearDirty() {
	s.dirty = make(map[CellPos]struct{})
}

func (s *Sheet) grow(row, col int) {
	if col > s.maxCol {
		for i := range s.rows {
			ext := make([]Cell, col)
			copy(ext, s.rows[i])
			s.rows[i] = ext
		}
		s.maxCol = col
	}
	for len(s.rows) < row {
		s.rows = append(s.rows, make([]Cell, s.maxCol))
	}
}
