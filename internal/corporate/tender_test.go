package corporate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/finmath"
)

func baseTender(end time.Time) domain.TenderOffer {
	return domain.TenderOffer{
		Ticker:             "HQH",
		SharesSoughtPct:    0.25,
		InstHoldingPct:     0.60,
		RetailHoldingPct:   0.40,
		InstTenderRate:     0.80,
		RetailTenderRate:   0.30,
		TenderDiscount:     0.02,
		PostTenderDiscount: -0.10,
		ExpenseDrag:        0.001,
		EndDate:            end,
	}
}

func TestAdjustTenderOffer_Proration(t *testing.T) {
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	res := AdjustTenderOffer(baseTender(now.AddDate(0, 0, 30)),
		finmath.Ptr(10.0), finmath.Ptr(9.0), finmath.Ptr(8.95), finmath.Ptr(9.05), now)
	require.NotNil(t, res)

	// 0.6*0.8 + 0.4*0.3 = 0.60 presented, 0.25 accepted, rest returned.
	assert.InDelta(t, 0.60, res.TenderedPct, 1e-9)
	assert.InDelta(t, 0.25, res.AcceptedPct, 1e-9)
	assert.InDelta(t, 0.35/0.60, res.ReturnedPct, 1e-9)

	// Buyback below NAV accretes: post NAV above 10 before the drag.
	tenderPrice := 10.0 * 0.98
	wantPostNav := (10.0 - tenderPrice*0.25) / 0.75 * (1 - 0.001)
	assert.InDelta(t, wantPostNav, res.PostNav, 1e-9)

	wantPostPrice := wantPostNav * 0.90
	acceptedFrac := 0.25 / 0.60
	wantFinal := acceptedFrac*tenderPrice + (1-acceptedFrac)*wantPostPrice
	assert.InDelta(t, wantFinal, res.FinalPrice, 1e-9)
}

func TestAdjustTenderOffer_IRRPositiveWhenBoughtBelowProceeds(t *testing.T) {
	// Last 9.00 against blended proceeds of 9.50 thirty days out must
	// annualize positive, consistent with the XIRR definition.
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	end := now.AddDate(0, 0, 30)

	offer := domain.TenderOffer{
		Ticker:           "HQH",
		SharesSoughtPct:  1.0,
		InstHoldingPct:   0.5,
		InstTenderRate:   1.0,
		TenderDiscount:   0.05,
		PostTenderDiscount: -0.05,
		EndDate:          end,
	}
	// estNav chosen so tender price = 9.50; half the float tenders and
	// everything presented is accepted, so proceeds are the tender price.
	res := AdjustTenderOffer(offer, finmath.Ptr(10.0),
		finmath.Ptr(9.0), nil, nil, now)
	require.NotNil(t, res)
	assert.InDelta(t, 9.50, res.FinalPrice, 1e-9)

	require.NotNil(t, res.IRRLast)
	assert.Positive(t, *res.IRRLast)
	assert.Nil(t, res.IRRBid)
	assert.Nil(t, res.IRRAsk)

	// Cross-check against the closed-form two-flow solution.
	settle := finmath.AddBusinessDays(now, 2)
	years := end.Sub(settle).Hours() / 24 / 365
	expected := math.Pow(9.50/9.00, 1/years) - 1
	assert.InDelta(t, expected, *res.IRRLast, 1e-6)
}

func TestAdjustTenderOffer_SkipsIRRWhenOfferAlreadyClosed(t *testing.T) {
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	res := AdjustTenderOffer(baseTender(now.AddDate(0, 0, 1)),
		finmath.Ptr(10.0), finmath.Ptr(9.0), nil, nil, now)
	require.NotNil(t, res)
	assert.Nil(t, res.IRRLast)
}

func TestAdjustTenderOffer_RequiresEstNavAndParticipation(t *testing.T) {
	now := time.Now()
	assert.Nil(t, AdjustTenderOffer(baseTender(now.AddDate(0, 1, 0)), nil, finmath.Ptr(9.0), nil, nil, now))

	offer := baseTender(now.AddDate(0, 1, 0))
	offer.InstTenderRate = 0
	offer.RetailTenderRate = 0
	assert.Nil(t, AdjustTenderOffer(offer, finmath.Ptr(10.0), finmath.Ptr(9.0), nil, nil, now))
}

func TestRedemptionIRR(t *testing.T) {
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	red := domain.Redemption{
		Ticker:             "PRIF PRD",
		NextRedemptionDate: now.AddDate(1, 0, 0),
		PrefRedemptionVal:  finmath.Ptr(25.0),
	}

	irr := RedemptionIRR(red, 24.0, nil, now)
	require.NotNil(t, irr)
	assert.Positive(t, *irr)

	// Past redemption date: not eligible.
	red.NextRedemptionDate = now.AddDate(0, 0, -1)
	assert.Nil(t, RedemptionIRR(red, 24.0, nil, now))

	// No terms value and no estimated NAV: nothing to discount to.
	red.NextRedemptionDate = now.AddDate(1, 0, 0)
	red.PrefRedemptionVal = nil
	assert.Nil(t, RedemptionIRR(red, 24.0, nil, now))
}
