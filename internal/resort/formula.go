package resort

import (
	"regexp"
	"strconv"
)

// cellRef reconoce referencias tipo A1: letras de columna (1 a 3) con "$"
// opcional antes y después, seguidas del número de fila.
var cellRef = regexp.MustCompile(`(\$?[A-Za-z]{1,3}\$?)(\d+)`)

// RewriteRowRefs reescribe en formula cada referencia cuya fila sea oldRow
// para que apunte a newRow. Las letras y los "$" se conservan tal cual y las
// referencias a otras filas no se tocan.
//
// Es un reemplazo léxico: no parsea la fórmula, así que también afecta a
// subcadenas con forma de referencia dentro de literales o nombres de función.
func RewriteRowRefs(formula string, oldRow, newRow int) string {
	if oldRow == newRow {
		return formula
	}
	return rewriteRefs(formula, oldRow, newRow, nil)
}

// rewriteRefs aplica la reescritura saltando las coincidencias que empiezan
// dentro de alguno de los rangos skip ([start, end) en bytes).
func rewriteRefs(formula string, oldRow, newRow int, skip [][2]int) string {
	matches := cellRef.FindAllStringSubmatchIndex(formula, -1)
	if len(matches) == 0 {
		return formula
	}
	target := strconv.Itoa(newRow)

	out := make([]byte, 0, len(formula)+4)
	last := 0
	for _, m := range matches {
		if inSpans(m[0], skip) {
			continue
		}
		row, err := strconv.Atoi(formula[m[4]:m[5]])
		if err != nil || row != oldRow {
			continue
		}
		out = append(out, formula[last:m[4]]...)
		out = append(out, target...)
		last = m[5]
	}
	if last == 0 {
		return formula
	}
	out = append(out, formula[last:]...)
	return string(out)
}

func inSpans(pos int, spans [][2]int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}
