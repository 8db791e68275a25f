package resort

import (
	"fmt"
	"strings"

	"github.com/xuri/efp"
)

// Policy decide cómo se reescriben las fórmulas de una fila que se mueve.
type Policy string

const (
	// PolicyLexical reescribe cualquier subcadena con forma de referencia en
	// texto que empiece por "=", sea o no una fórmula bien formada.
	PolicyLexical Policy = "lexical"
	// PolicyStrict solo reescribe celdas en las que el tokenizador de fórmulas
	// encuentra al menos un operando de rango, y nunca dentro de literales "...".
	PolicyStrict Policy = "strict"
)

// ParsePolicy valida el nombre de una política. "" equivale a lexical.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyLexical:
		return PolicyLexical, nil
	case PolicyStrict:
		return PolicyStrict, nil
	}
	return "", fmt.Errorf("resort.ParsePolicy: unknown formula policy %q (want lexical|strict)", s)
}

// Rewrite aplica la política a una fórmula movida de oldRow a newRow.
func (p Policy) Rewrite(formula string, oldRow, newRow int) string {
	if p != PolicyStrict {
		return RewriteRowRefs(formula, oldRow, newRow)
	}
	if oldRow == newRow || !hasRangeOperand(formula) {
		return formula
	}
	return rewriteRefs(formula, oldRow, newRow, stringLiterals(formula))
}

// hasRangeOperand tokeniza la fórmula y comprueba si referencia algún rango.
func hasRangeOperand(formula string) bool {
	body := strings.TrimPrefix(formula, "=")
	if body == "" {
		return false
	}
	ps := efp.ExcelParser()
	for _, tok := range ps.Parse(body) {
		if tok.TType == efp.TokenTypeOperand && tok.TSubType == efp.TokenSubTypeRange {
			return true
		}
	}
	return false
}

// stringLiterals devuelve los rangos [start, end) de los literales entre
// comillas dobles. Dos comillas seguidas dentro de un literal son un escape.
func stringLiterals(formula string) [][2]int {
	var spans [][2]int
	start := -1
	for i := 0; i < len(formula); i++ {
		if formula[i] != '"' {
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		if i+1 < len(formula) && formula[i+1] == '"' {
			i++
			continue
		}
		spans = append(spans, [2]int{start, i + 1})
		start = -1
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, len(formula)})
	}
	return spans
}
