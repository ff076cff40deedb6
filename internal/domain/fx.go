package domain

// FxTable maps ISO currency code to its latest USD rate.
type FxTable map[string]FxRate

// ToUSD converts an amount quoted in ccy into USD. Pence quotes ("GBp")
// are divided by 100 and converted at the GBP rate. USD passes through.
// Returns false when no rate is loaded for the currency.
func (t FxTable) ToUSD(amount float64, ccy string) (float64, bool) {
	switch ccy {
	case "", "USD":
		return amount, true
	case "GBp", "GBX":
		r, ok := t["GBP"]
		if !ok {
			return 0, false
		}
		return amount / 100 * r.Rate, true
	default:
		r, ok := t[ccy]
		if !ok {
			return 0, false
		}
		return amount * r.Rate, true
	}
}

// TickerMap translates entity master tickers to market-data tickers.
// Price lookups must pass through it; an unmapped ticker maps to itself.
type TickerMap map[string]string

// Resolve returns the market-data ticker for an entity ticker.
func (m TickerMap) Resolve(entity string) string {
	if mapped, ok := m[entity]; ok && mapped != "" {
		return mapped
	}
	return entity
}
