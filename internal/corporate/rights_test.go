package corporate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/finmath"
)

func TestAdjustRightsOffer_ZeroSubscriptionRatioMeansNoDilution(t *testing.T) {
	offer := domain.RightsOffer{
		Ticker:      "GAB",
		SubRatio:    0,
		Basis:       domain.BasisNAV,
		DiscountPct: 0.05,
	}
	res := AdjustRightsOffer(offer,
		finmath.Ptr(50.0), finmath.Ptr(10.0), finmath.Ptr(9.0))
	require.NotNil(t, res)

	assert.Zero(t, res.SharesIssued)
	assert.Zero(t, res.DilutionPct)
	assert.Equal(t, 10.0, res.PostNav)
	assert.Equal(t, 9.0, res.PostPrice)
}

func TestAdjustRightsOffer_NavBasisDilution(t *testing.T) {
	// 1-for-3 at a 10% discount to NAV: strike 9.00, shares 30m at NAV 10.
	offer := domain.RightsOffer{
		Ticker:      "GAB",
		SubRatio:    1.0 / 3.0,
		Basis:       domain.BasisNAV,
		DiscountPct: 0.10,
	}
	res := AdjustRightsOffer(offer,
		finmath.Ptr(30.0), finmath.Ptr(10.0), finmath.Ptr(9.5))
	require.NotNil(t, res)

	assert.InDelta(t, 10.0, res.SharesIssued, 1e-9)
	assert.InDelta(t, 9.0, res.SubPrice, 1e-9)
	// (30*10 + 10*9) / 40 = 9.75
	assert.InDelta(t, 9.75, res.PostNav, 1e-9)
	assert.InDelta(t, -0.025, res.DilutionPct, 1e-9)
	// (30*9.5 + 10*9) / 40 = 9.375
	assert.InDelta(t, 9.375, res.PostPrice, 1e-9)
	assert.InDelta(t, 9.375/9.75-1, res.PostDiscount, 1e-9)
}

func TestAdjustRightsOffer_KnownSubscriptionPriceWins(t *testing.T) {
	offer := domain.RightsOffer{
		Ticker:        "GAB",
		SubRatio:      0.5,
		Basis:         domain.BasisPrice,
		DiscountPct:   0.10,
		KnownSubPrice: finmath.Ptr(8.0),
	}
	res := AdjustRightsOffer(offer,
		finmath.Ptr(20.0), finmath.Ptr(10.0), finmath.Ptr(9.0))
	require.NotNil(t, res)
	assert.Equal(t, 8.0, res.SubPrice)
}

func TestAdjustRightsOffer_DiscardsOnMissingOrDegenerateInputs(t *testing.T) {
	offer := domain.RightsOffer{Ticker: "GAB", SubRatio: 0.5}

	assert.Nil(t, AdjustRightsOffer(offer, nil, finmath.Ptr(10.0), finmath.Ptr(9.0)))
	assert.Nil(t, AdjustRightsOffer(offer, finmath.Ptr(20.0), nil, finmath.Ptr(9.0)))
	assert.Nil(t, AdjustRightsOffer(offer, finmath.Ptr(20.0), finmath.Ptr(10.0), nil))
	// Zero NAV would blow up the dilution ratio.
	assert.Nil(t, AdjustRightsOffer(offer, finmath.Ptr(20.0), finmath.Ptr(0.0), finmath.Ptr(9.0)))
}
