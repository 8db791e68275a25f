package resort_test

import (
	"testing"

	"github.com/alejandrodnm/onchainsheet/internal/resort"
	"github.com/stretchr/testify/assert"
)

func TestRewriteRowRefs(t *testing.T) {
	tests := []struct {
		name     string
		formula  string
		old, new int
		want     string
	}{
		{"absolute reference to the moved row", "=A5+$B$5", 5, 8, "=A8+$B$8"},
		{"absolute markers survive", "=$A$5", 5, 8, "=$A$8"},
		{"mixed markers", "=A$5*$C5", 5, 12, "=A$12*$C12"},
		{"other rows untouched", "=H5*G3/$O$2", 5, 8, "=H8*G3/$O$2"},
		{"longer row number not a prefix match", "=A55+A5", 5, 6, "=A55+A6"},
		{"three letter column", "=ABC7-AB7", 7, 4, "=ABC4-AB4"},
		{"lower case letters", "=a5", 5, 9, "=a9"},
		{"range", "=SUM(D5:F5)", 5, 4, "=SUM(D4:F4)"},
		{"no refs", "=1+2", 5, 8, "=1+2"},
		{"same row", "=A5", 5, 5, "=A5"},
		{"look-alike text is rewritten", "=see B5 notes", 5, 6, "=see B6 notes"},
		{"reference inside string literal is rewritten", `="A5"&A5`, 5, 6, `="A6"&A6`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resort.RewriteRowRefs(tt.formula, tt.old, tt.new))
		})
	}
}

func TestRewriteRowRefs_FunctionNameLooksLikeRef(t *testing.T) {
	// LOG10 tiene forma de referencia a la fila 10: el reemplazo léxico lo toca.
	assert.Equal(t, "=LOG4(A4)", resort.RewriteRowRefs("=LOG10(A10)", 10, 4))
}
