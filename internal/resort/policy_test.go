package resort_test

import (
	"testing"

	"github.com/alejandrodnm/onchainsheet/internal/resort"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	p, err := resort.ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, resort.PolicyLexical, p)

	p, err = resort.ParsePolicy(" Strict ")
	require.NoError(t, err)
	assert.Equal(t, resort.PolicyStrict, p)

	_, err = resort.ParsePolicy("semantic")
	assert.Error(t, err)
}

func TestPolicy_LexicalMatchesRewriteRowRefs(t *testing.T) {
	f := `="B5"&B5`
	assert.Equal(t, resort.RewriteRowRefs(f, 5, 7), resort.PolicyLexical.Rewrite(f, 5, 7))
}

func TestPolicy_StrictSkipsStringLiterals(t *testing.T) {
	got := resort.PolicyStrict.Rewrite(`="row B5 is "&B5`, 5, 7)
	assert.Equal(t, `="row B5 is "&B7`, got)
}

func TestPolicy_StrictEscapedQuotes(t *testing.T) {
	got := resort.PolicyStrict.Rewrite(`="say ""A5"" "&A5`, 5, 2)
	assert.Equal(t, `="say ""A5"" "&A2`, got)
}

func TestPolicy_StrictRewritesPlainFormula(t *testing.T) {
	assert.Equal(t, "=H9*G9+$O$2", resort.PolicyStrict.Rewrite("=H4*G4+$O$2", 4, 9))
}

func TestPolicy_StrictLeavesFormulaWithoutRanges(t *testing.T) {
	assert.Equal(t, `="A5"`, resort.PolicyStrict.Rewrite(`="A5"`, 5, 6))
}
