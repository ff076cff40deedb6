package store

import (
	"sync"
	"sync/atomic"

	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/proxy"
)

// ReturnKind selects which historical reference-return table an estimator
// reads.
type ReturnKind string

const (
	ReturnsETF   ReturnKind = "etf"
	ReturnsProxy ReturnKind = "proxy"
	ReturnsAlt   ReturnKind = "alt_proxy"
	ReturnsPort  ReturnKind = "port_proxy"
)

// Store bundles every entity table the engine touches. One instance is
// long-lived; loaders refresh individual tables wholesale and the engine
// reads them during a pass.
type Store struct {
	Securities    *Table[domain.SecurityMaster]
	Navs          *Table[domain.PublishedNav]
	Prices        *Table[domain.SecurityPrice] // keyed by market-data ticker
	Redemptions   *Table[domain.Redemption]
	RightsOffers  *Table[domain.RightsOffer]
	TenderOffers  *Table[domain.TenderOffer]
	DiscountStats *Table[domain.DiscountStats]
	Regressions   *Table[domain.RegressionModel]
	AlphaModels   *Table[domain.AlphaModel]
	Forecasts     *Table[*domain.Forecast]

	// Snapshots holds immutable per-ticker copies of the forecasts,
	// republished after each calculation. The engine alone touches the
	// live records in Forecasts; every concurrent reader (monitor
	// handlers, the redis publisher) reads from here.
	Snapshots *Table[*domain.Forecast]

	// External estimator feeds consumed as inputs: holdings roll-forward,
	// Numis third-party estimates, crypto-basket valuations.
	HoldingsNavs *Table[float64]
	NumisNavs    *Table[float64]
	CryptoNavs   *Table[float64]

	mu        sync.RWMutex
	fx        domain.FxTable
	tickerMap domain.TickerMap
	formulas  map[formulaKey]*formulaEntry
	returns   map[ReturnKind]map[string]float64
}

type formulaKey struct {
	ticker string
	kind   domain.ProxyKind
}

type formulaEntry struct {
	text string
	rev  atomic.Uint64
}

// New returns an empty store with every table initialized.
func New() *Store {
	return &Store{
		Securities:    NewTable[domain.SecurityMaster](),
		Navs:          NewTable[domain.PublishedNav](),
		Prices:        NewTable[domain.SecurityPrice](),
		Redemptions:   NewTable[domain.Redemption](),
		RightsOffers:  NewTable[domain.RightsOffer](),
		TenderOffers:  NewTable[domain.TenderOffer](),
		DiscountStats: NewTable[domain.DiscountStats](),
		Regressions:   NewTable[domain.RegressionModel](),
		AlphaModels:   NewTable[domain.AlphaModel](),
		Forecasts:     NewTable[*domain.Forecast](),
		Snapshots:     NewTable[*domain.Forecast](),
		HoldingsNavs:  NewTable[float64](),
		NumisNavs:     NewTable[float64](),
		CryptoNavs:    NewTable[float64](),
		fx:            make(domain.FxTable),
		tickerMap:     make(domain.TickerMap),
		formulas:      make(map[formulaKey]*formulaEntry),
		returns:       make(map[ReturnKind]map[string]float64),
	}
}

// Fx returns the current FX table.
func (s *Store) Fx() domain.FxTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fx
}

// SetFx replaces the FX table.
func (s *Store) SetFx(fx domain.FxTable) {
	s.mu.Lock()
	s.fx = fx
	s.mu.Unlock()
}

// TickerMap returns the entity-to-market ticker translation table.
func (s *Store) TickerMap() domain.TickerMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tickerMap
}

// SetTickerMap replaces the ticker translation table.
func (s *Store) SetTickerMap(m domain.TickerMap) {
	s.mu.Lock()
	s.tickerMap = m
	s.mu.Unlock()
}

// PriceFor resolves an entity ticker through the ticker map and returns
// its live quote.
func (s *Store) PriceFor(entityTicker string) (domain.SecurityPrice, bool) {
	return s.Prices.Get(s.TickerMap().Resolve(entityTicker))
}

// Formula implements proxy.FormulaSource.
func (s *Store) Formula(ticker string, kind domain.ProxyKind) (proxy.Formula, bool) {
	s.mu.RLock()
	e, ok := s.formulas[formulaKey{ticker: ticker, kind: kind}]
	s.mu.RUnlock()
	if !ok {
		return proxy.Formula{}, false
	}
	return proxy.Formula{Text: e.text, Rev: e.rev.Load()}, true
}

// SetFormula stores a proxy formula and bumps its revision so the
// resolver reparses on next use.
func (s *Store) SetFormula(ticker string, kind domain.ProxyKind, text string) {
	key := formulaKey{ticker: ticker, kind: kind}
	s.mu.Lock()
	e, ok := s.formulas[key]
	if !ok {
		e = &formulaEntry{}
		s.formulas[key] = e
	}
	e.text = text
	s.mu.Unlock()
	e.rev.Add(1)
}

// MarkFormulaDirty bumps a formula's revision without changing its text,
// forcing a reparse. Used by the single-ticker dirty entry points.
func (s *Store) MarkFormulaDirty(ticker string, kind domain.ProxyKind) {
	s.mu.RLock()
	e, ok := s.formulas[formulaKey{ticker: ticker, kind: kind}]
	s.mu.RUnlock()
	if ok {
		e.rev.Add(1)
	}
}

// Return looks up one reference ticker's live return in the given table.
func (s *Store) Return(kind ReturnKind, ticker string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tbl, ok := s.returns[kind]
	if !ok {
		return 0, false
	}
	r, ok := tbl[ticker]
	return r, ok
}

// SetReturns replaces one reference-return table wholesale.
func (s *Store) SetReturns(kind ReturnKind, table map[string]float64) {
	s.mu.Lock()
	s.returns[kind] = table
	s.mu.Unlock()
}

// ForecastFor returns the live forecast record for a ticker, creating it
// on first use so every tracked security always has exactly one record.
// Only the engine's calculation goroutine may hold the returned pointer;
// concurrent readers go through Snapshots.
func (s *Store) ForecastFor(ticker string) *domain.Forecast {
	if f, ok := s.Forecasts.Get(ticker); ok {
		return f
	}
	f := domain.NewForecast(ticker)
	s.Forecasts.Put(ticker, f)
	s.Snapshots.Put(ticker, f.Clone())
	return f
}

// PublishSnapshot replaces the ticker's published snapshot with a fresh
// immutable copy of its forecast.
func (s *Store) PublishSnapshot(f *domain.Forecast) {
	s.Snapshots.Put(f.Ticker, f.Clone())
}
