package domain

import "time"

// Estimate is one estimator's output: a NAV level and the return that
// produced it. Estimates live in a per-method slot map on the Forecast so
// switching a security's configured method can never leak a stale value
// from the previously active method.
type Estimate struct {
	Nav float64
	Rtn float64
}

// Score is one window's raw and standardized deviation of live discount
// from its historical mean.
type Score struct {
	D float64
	Z *float64 // absent when the window's stddev is zero or stats missing
}

// RightsResult is the rights-offer adjusted valuation set. It is written
// all-or-nothing: any non-finite intermediate discards the whole set.
type RightsResult struct {
	SharesIssued float64 // millions
	SubPrice     float64
	PostNav      float64
	PostPrice    float64
	DilutionPct  float64
	PostDiscount float64
}

// TenderResult is the tender-offer economics for a holder tendering all
// shares, including annualized IRRs from each live quote to settlement.
type TenderResult struct {
	TenderedPct float64 // fraction of outstanding actually presented
	AcceptedPct float64 // fraction of outstanding taken up
	ReturnedPct float64 // fraction of presented shares prorated back
	PostNav     float64
	FinalPrice  float64 // blended per-share proceeds
	IRRLast     *float64
	IRRBid      *float64
	IRRAsk      *float64
}

// Forecast is the central mutable output record for one security. One
// instance exists per ticker; every Calculate pass overwrites it
// field-by-field after ResetCycle clears the per-cycle state.
type Forecast struct {
	Ticker string

	// Reset-stage baseline.
	LastNav     *float64
	LastNavDate time.Time
	DivAdjNav   *float64 // published NAV adjusted for redemption value and ex-div
	UNIIToNav   *float64
	MktValUSD   *float64 // fund market value, USD millions

	// Per-method estimator outputs, cleared each cycle. CryptoNav is the
	// exception: its slot is carried across resets because the external
	// valuation feed owns its lifecycle.
	Estimates map[EstimationMethod]Estimate

	// Hierarchy-resolver output.
	EstNav      *float64
	EstRtn      *float64
	UnadjEstNav *float64 // before the manual NAV adjustment
	NavEstMthd  EstimationMethod
	CondBranch  ProxyKind // which branch the conditional proxy took

	AccruedInterest   *float64
	ImpliedAccrualRate *float64

	// Discounts. Pub* variants are the discount-to-published-NAV set
	// computed for BDCs.
	Discount         *float64
	BidDiscount      *float64
	AskDiscount      *float64
	UnleveredDiscount *float64
	PubDiscount      *float64
	PubBidDiscount   *float64
	PubAskDiscount   *float64
	DiscountChg      *float64

	Scores map[StatWindow]Score

	Rights        *RightsResult
	Tender        *TenderResult
	RedemptionIRR *float64
	ExpectedAlpha *float64

	CycleID      string
	CalculatedAt time.Time
	LastError    string // most recent per-ticker failure, cleared on success
}

// NewForecast seeds an empty record for a ticker.
func NewForecast(ticker string) *Forecast {
	return &Forecast{
		Ticker:    ticker,
		Estimates: make(map[EstimationMethod]Estimate),
		Scores:    make(map[StatWindow]Score),
	}
}

// ResetCycle clears per-cycle derived state ahead of a recalculation. The
// CryptoNav estimate slot survives; so do prior discounts needed by the
// discount-change comparison, which are sourced from PublishedNav instead
// of this record.
func (f *Forecast) ResetCycle() {
	crypto, hasCrypto := f.Estimates[MethodCryptoNav]
	f.Estimates = make(map[EstimationMethod]Estimate)
	if hasCrypto {
		f.Estimates[MethodCryptoNav] = crypto
	}
	f.Scores = make(map[StatWindow]Score)
	f.EstNav = nil
	f.EstRtn = nil
	f.UnadjEstNav = nil
	f.NavEstMthd = ""
	f.CondBranch = ""
	f.AccruedInterest = nil
	f.Discount = nil
	f.BidDiscount = nil
	f.AskDiscount = nil
	f.UnleveredDiscount = nil
	f.PubDiscount = nil
	f.PubBidDiscount = nil
	f.PubAskDiscount = nil
	f.DiscountChg = nil
	f.RedemptionIRR = nil
	f.ExpectedAlpha = nil
	f.LastError = ""
}

// Clone returns a copy safe to hand to concurrent readers while the
// original keeps being recalculated. Map fields are copied; pointer
// fields are written once per cycle and never mutated in place, so
// sharing them is safe.
func (f *Forecast) Clone() *Forecast {
	c := *f
	c.Estimates = make(map[EstimationMethod]Estimate, len(f.Estimates))
	for m, e := range f.Estimates {
		c.Estimates[m] = e
	}
	c.Scores = make(map[StatWindow]Score, len(f.Scores))
	for w, s := range f.Scores {
		c.Scores[w] = s
	}
	return &c
}

// SetEstimate records one estimator's output in its method slot.
func (f *Forecast) SetEstimate(m EstimationMethod, nav, rtn float64) {
	f.Estimates[m] = Estimate{Nav: nav, Rtn: rtn}
}

// GetEstimate returns the estimate for a method, if that estimator ran.
func (f *Forecast) GetEstimate(m EstimationMethod) (Estimate, bool) {
	e, ok := f.Estimates[m]
	return e, ok
}
