package proxy

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundscope/navcast/internal/domain"
)

type fakeSource struct {
	formulas map[string]Formula
}

func (f *fakeSource) Formula(ticker string, kind domain.ProxyKind) (Formula, bool) {
	got, ok := f.formulas[ticker+"|"+string(kind)]
	return got, ok
}

func TestResolver_CachesUntilRevisionMoves(t *testing.T) {
	src := &fakeSource{formulas: map[string]Formula{
		"PDI|proxy": {Text: "0.6*BKLN US+0.4*SJNK US", Rev: 1},
	}}
	r := NewResolver(src, zerolog.Nop())

	deps := r.Deps("PDI", domain.ProxyPrimary)
	require.Len(t, deps, 2)
	assert.Equal(t, "BKLN US", deps[0].Ticker)

	// Text changes without a revision bump are not picked up.
	src.formulas["PDI|proxy"] = Formula{Text: "1*SPY US", Rev: 1}
	deps = r.Deps("PDI", domain.ProxyPrimary)
	require.Len(t, deps, 2)

	// Bumping the revision forces a reparse.
	src.formulas["PDI|proxy"] = Formula{Text: "1*SPY US", Rev: 2}
	deps = r.Deps("PDI", domain.ProxyPrimary)
	require.Len(t, deps, 1)
	assert.Equal(t, "SPY US", deps[0].Ticker)
}

func TestResolver_MalformedFormulaDegradesToEmpty(t *testing.T) {
	src := &fakeSource{formulas: map[string]Formula{
		"BAD|proxy": {Text: "0.5*", Rev: 1},
	}}
	r := NewResolver(src, zerolog.Nop())

	assert.Empty(t, r.Deps("BAD", domain.ProxyPrimary))
	// And again, served from cache without re-logging a parse failure.
	assert.Empty(t, r.Deps("BAD", domain.ProxyPrimary))
}

func TestResolver_MissingFormula(t *testing.T) {
	r := NewResolver(&fakeSource{formulas: map[string]Formula{}}, zerolog.Nop())
	assert.Empty(t, r.Deps("NONE", domain.ProxyAlt))
}
