package domain

import "time"

// SecurityMaster holds static reference attributes for one tracked fund.
// Records are replaced wholesale on refresh and are immutable within a
// calculation cycle.
type SecurityMaster struct {
	Ticker        string
	Name          string
	Country       string
	Currency      string // ISO code; "GBp" marks pence quotes
	AssetType     AssetType
	PaymentRank   string
	LeverageRatio float64 // assets/equity - 1; 0 for unlevered funds
	ExpenseRatio  float64 // annual, fraction
	MgmtFeeRate   float64 // annual management fee, fraction
	TaxRate       float64 // applied to positive estimated returns
	AccrualRate   *float64
	QuarterlyNII  *float64 // most recent quarterly net investment income

	NavEstMethod EstimationMethod

	AssetLevel1 string
	AssetLevel2 string
	GeoLevel1   string
	GeoLevel2   string
	PeerGroup   string
}

// PublishedNav is the last officially reported NAV for a security plus the
// user-level overrides that persist across NAV refreshes.
type PublishedNav struct {
	Ticker            string
	Nav               *float64
	NavDate           time.Time
	Source            string
	SharesOutstanding *float64 // millions
	ExDivSinceNav     *float64 // dividends declared since NavDate, per share
	UNIIBalance       *float64 // undistributed net investment income, per share

	UserNavOverride *float64
	OverrideDate    time.Time
	IntrinsicValue  *float64
	NavAdjustment   *float64 // manual additive adjustment to estimated NAV

	// Prior-valuation bookkeeping for discount-change: the discount and NAV
	// date recorded on the last valuation date, plus the externally supplied
	// baseline used when the NAV date has not rolled since then.
	PriorDiscount    *float64
	PriorNavDate     time.Time
	BaselineDiscount *float64
}

// SecurityPrice is a live quote keyed by market-data ticker. Lookups from
// an entity ticker must go through the ticker map first.
type SecurityPrice struct {
	Ticker       string
	Last         *float64
	Bid          *float64
	Ask          *float64
	PriceReturn  *float64 // return since the last NAV baseline
	MarketClosed bool
	Source       string
	AsOf         time.Time
}

// FxRate converts one unit of Currency into USD.
type FxRate struct {
	Currency string
	Rate     float64
	PrevRate float64
	AsOf     time.Time
}

// Redemption holds preferred/term redemption terms for securities with a
// scheduled redemption feature.
type Redemption struct {
	Ticker             string
	NextRedemptionDate time.Time
	PrefRedemptionVal  *float64
	PrefRatio          *float64
	IncludedInNav      bool // redemption value already embedded in published NAV
	PreferredTicker    string
	ConvRatio          *float64 // preferred-share conversion ratio for price stacking
}

// RightsOffer describes an open rights offering. Presence of a record is
// the trigger to compute the adjustment; absence clears it.
type RightsOffer struct {
	Ticker        string
	SubRatio      float64 // new shares per existing share
	OverSubRatio  float64
	Basis         DiscountBasis
	DiscountPct   float64  // discount to basis when striking the subscription price
	KnownSubPrice *float64 // overrides the computed strike when announced
	ExpiryDate    time.Time
	Display       bool // downstream discounts/scores should prefer adjusted values
}

// TenderOffer describes an open tender offer.
type TenderOffer struct {
	Ticker            string
	SharesSoughtPct   float64 // fraction of shares outstanding sought
	InstHoldingPct    float64
	RetailHoldingPct  float64
	InstTenderRate    float64
	RetailTenderRate  float64
	TenderDiscount    float64 // discount to NAV at which shares are taken
	PostTenderDiscount float64 // expected market discount after completion
	ExpenseDrag       float64 // per-share NAV drag from offer expenses, fraction
	EndDate           time.Time
	Display           bool
}

// StatWindow is a historical lookback window for discount statistics.
type StatWindow string

const (
	Win1W   StatWindow = "1W"
	Win2W   StatWindow = "2W"
	Win1M   StatWindow = "1M"
	Win3M   StatWindow = "3M"
	Win6M   StatWindow = "6M"
	Win12M  StatWindow = "12M"
	Win24M  StatWindow = "24M"
	Win36M  StatWindow = "36M"
	Win60M  StatWindow = "60M"
	WinLife StatWindow = "Life"
)

// StatWindows lists every window in scoring order.
var StatWindows = []StatWindow{
	Win1W, Win2W, Win1M, Win3M, Win6M, Win12M, Win24M, Win36M, Win60M, WinLife,
}

// WindowStat is the historical mean/stddev of discount over one window.
type WindowStat struct {
	Mean   float64
	StdDev float64
}

// DiscountStats carries per-window historical discount statistics for a
// ticker or peer group.
type DiscountStats struct {
	Key     string
	Windows map[StatWindow]WindowStat
}

// RegressionModel holds stored ETF-regression coefficients for one security.
type RegressionModel struct {
	Ticker    string
	Intercept float64
	Terms     []RegressionTerm
}

// RegressionTerm is one (coefficient, reference ticker) pair.
type RegressionTerm struct {
	Coef   float64
	Ticker string
}

// AlphaModel holds expected-alpha model coefficients, consumed as a black
// box: ExpectedAlpha = Intercept + ZCoef*Z3M + DCoef*DScore3M +
// SectorCoef*(sector mean discount - live discount).
type AlphaModel struct {
	Ticker     string
	Intercept  float64
	ZCoef      float64
	DCoef      float64
	SectorCoef float64
	SectorMean float64
}
