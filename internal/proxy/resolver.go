package proxy

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/fundscope/navcast/internal/domain"
)

// Formula is the stored text of one proxy formula plus its revision
// counter. The revision is bumped on every edit (or explicit mark-dirty),
// and the resolver reparses when its cached revision falls behind. This
// replaces per-record recalculation flags with invalidation owned by the
// resolver itself.
type Formula struct {
	Text string
	Rev  uint64
}

// FormulaSource yields the current formula for a ticker and proxy kind.
type FormulaSource interface {
	Formula(ticker string, kind domain.ProxyKind) (Formula, bool)
}

type cacheKey struct {
	ticker string
	kind   domain.ProxyKind
}

type cacheEntry struct {
	rev   uint64
	terms []Term
}

// Resolver caches parsed dependency lists per (ticker, kind). Malformed
// formulas degrade to an empty list so one bad formula never aborts a
// batch.
type Resolver struct {
	src FormulaSource
	log zerolog.Logger

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

// NewResolver builds a resolver over a formula source.
func NewResolver(src FormulaSource, log zerolog.Logger) *Resolver {
	return &Resolver{
		src:   src,
		log:   log.With().Str("component", "proxy_resolver").Logger(),
		cache: make(map[cacheKey]cacheEntry),
	}
}

// Deps returns the parsed dependency terms for a ticker's formula of the
// given kind, reparsing when the stored formula's revision has moved.
func (r *Resolver) Deps(ticker string, kind domain.ProxyKind) []Term {
	f, ok := r.src.Formula(ticker, kind)
	if !ok || f.Text == "" {
		return nil
	}

	key := cacheKey{ticker: ticker, kind: kind}
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, hit := r.cache[key]; hit && e.rev == f.Rev {
		return e.terms
	}

	terms, err := ParseFormula(f.Text)
	if err != nil {
		r.log.Warn().Err(err).Str("ticker", ticker).Str("kind", string(kind)).
			Msg("malformed proxy formula, dependency list emptied")
		terms = nil
	}
	r.cache[key] = cacheEntry{rev: f.Rev, terms: terms}
	return terms
}

// Invalidate drops every cached entry; Start calls it before rebuilding
// dependency maps.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.cache = make(map[cacheKey]cacheEntry)
	r.mu.Unlock()
}

// Warm parses and caches the dependency lists for a set of tickers across
// all three proxy kinds, returning how many formulas parsed cleanly.
func (r *Resolver) Warm(tickers []string) int {
	parsed := 0
	for _, t := range tickers {
		for _, kind := range []domain.ProxyKind{domain.ProxyPrimary, domain.ProxyAlt, domain.ProxyPortFI} {
			if deps := r.Deps(t, kind); len(deps) > 0 {
				parsed++
			}
		}
	}
	return parsed
}
