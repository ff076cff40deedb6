package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormula_SignedTerms(t *testing.T) {
	terms, err := ParseFormula("0.5*AAA+0.3*BBB-0.2*CCC")
	require.NoError(t, err)
	require.Len(t, terms, 3)

	assert.Equal(t, Term{Coef: 0.5, Ticker: "AAA"}, terms[0])
	assert.Equal(t, Term{Coef: 0.3, Ticker: "BBB"}, terms[1])
	assert.Equal(t, Term{Coef: -0.2, Ticker: "CCC"}, terms[2])
}

func TestParseFormula_ExchangeSuffixTickers(t *testing.T) {
	terms, err := ParseFormula("0.19*BKLN US+0.08*SJNK US")
	require.NoError(t, err)
	require.Len(t, terms, 2)

	assert.Equal(t, "BKLN US", terms[0].Ticker)
	assert.InDelta(t, 0.19, terms[0].Coef, 1e-12)
	assert.Equal(t, "SJNK US", terms[1].Ticker)
	assert.InDelta(t, 0.08, terms[1].Coef, 1e-12)
}

func TestParseFormula_ImpliedCoefficient(t *testing.T) {
	terms, err := ParseFormula("SPY US")
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, Term{Coef: 1, Ticker: "SPY US"}, terms[0])

	terms, err = ParseFormula("-HYG US+0.5*LQD US")
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, Term{Coef: -1, Ticker: "HYG US"}, terms[0])
	assert.Equal(t, Term{Coef: 0.5, Ticker: "LQD US"}, terms[1])
}

func TestParseFormula_Empty(t *testing.T) {
	terms, err := ParseFormula("   ")
	require.NoError(t, err)
	assert.Empty(t, terms)
}

func TestParseFormula_Malformed(t *testing.T) {
	cases := []string{
		"0.5*",
		"abc*XYZ",
		"0.5*AAA++0.3*BBB",
	}
	for _, formula := range cases {
		_, err := ParseFormula(formula)
		assert.Error(t, err, "formula %q should not parse", formula)
	}
}
