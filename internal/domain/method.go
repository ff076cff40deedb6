package domain

import "fmt"

// EstimationMethod selects which estimator feeds the canonical EstNav.
type EstimationMethod string

const (
	MethodUserOverride EstimationMethod = "User Override"
	MethodHoldings     EstimationMethod = "Holdings"
	MethodETFReg       EstimationMethod = "ETF Reg"
	MethodProxy        EstimationMethod = "Proxy"
	MethodCondProxy    EstimationMethod = "CondProxy"
	MethodNumisEstNav  EstimationMethod = "NumisEstNav"
	MethodPublished    EstimationMethod = "Published"
	MethodAltProxy     EstimationMethod = "Alt Proxy"
	MethodCryptoNav    EstimationMethod = "CryptoNav"

	// MethodPortProxy is an estimate slot only: the portfolio-fixed-income
	// proxy variant feeds the conditional proxy and is never configured as
	// a security's method directly, so it is excluded from parsing.
	MethodPortProxy EstimationMethod = "Port Proxy"
)

var methodNames = map[string]EstimationMethod{
	string(MethodUserOverride): MethodUserOverride,
	string(MethodHoldings):     MethodHoldings,
	string(MethodETFReg):       MethodETFReg,
	string(MethodProxy):        MethodProxy,
	string(MethodCondProxy):    MethodCondProxy,
	string(MethodNumisEstNav):  MethodNumisEstNav,
	string(MethodPublished):    MethodPublished,
	string(MethodAltProxy):     MethodAltProxy,
	string(MethodCryptoNav):    MethodCryptoNav,
}

// ParseEstimationMethod rejects unknown method names instead of silently
// falling through like the string switches it replaces. An empty name maps
// to Published.
func ParseEstimationMethod(s string) (EstimationMethod, error) {
	if s == "" {
		return MethodPublished, nil
	}
	if m, ok := methodNames[s]; ok {
		return m, nil
	}
	return "", fmt.Errorf("unknown estimation method %q", s)
}

// AssetType classifies the fund structure.
type AssetType string

const (
	AssetCEF   AssetType = "CEF"
	AssetBDC   AssetType = "BDC"
	AssetREIT  AssetType = "REIT"
	AssetTrust AssetType = "Trust"
	AssetSPAC  AssetType = "SPAC"
)

// ProxyKind distinguishes the three independent proxy formulas a security
// may carry.
type ProxyKind string

const (
	ProxyPrimary ProxyKind = "proxy"
	ProxyAlt     ProxyKind = "alt_proxy"
	ProxyPortFI  ProxyKind = "port_proxy"
)

// DiscountBasis is the reference value a rights offer subscription price
// is struck against.
type DiscountBasis string

const (
	BasisPrice DiscountBasis = "Price"
	BasisNAV   DiscountBasis = "NAV"
)
