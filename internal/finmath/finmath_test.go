package finmath

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeDiv(t *testing.T) {
	v, ok := SafeDiv(1, 4)
	require.True(t, ok)
	assert.Equal(t, 0.25, v)

	_, ok = SafeDiv(1, 0)
	assert.False(t, ok)

	_, ok = SafeDiv(math.Inf(1), 2)
	assert.False(t, ok)
}

func TestDiscount_SignMatchesPriceVsNav(t *testing.T) {
	d, ok := Discount(11, 10)
	require.True(t, ok)
	assert.Greater(t, d, 0.0)

	d, ok = Discount(9, 10)
	require.True(t, ok)
	assert.Less(t, d, 0.0)

	d, ok = Discount(10, 10)
	require.True(t, ok)
	assert.Zero(t, d)

	_, ok = Discount(10, 0)
	assert.False(t, ok)
}

func TestXIRR_OneYearDouble(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	irr, err := XIRR([]CashFlow{
		{Date: start, Amount: -100},
		{Date: start.AddDate(0, 0, 365), Amount: 200},
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, irr, 1e-6)
}

func TestXIRR_ShortHorizonAnnualizes(t *testing.T) {
	// Buy at 9.00, receive 9.50 after 28 days: IRR must satisfy
	// 9.00*(1+r)^(28/365) = 9.50.
	settle := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	end := settle.AddDate(0, 0, 28)
	irr, err := XIRR([]CashFlow{
		{Date: settle, Amount: -9.00},
		{Date: end, Amount: 9.50},
	})
	require.NoError(t, err)

	expected := math.Pow(9.50/9.00, 365.0/28.0) - 1
	assert.InDelta(t, expected, irr, 1e-6)
	assert.Positive(t, irr)
}

func TestXIRR_RejectsOneSidedFlows(t *testing.T) {
	d := time.Now()
	_, err := XIRR([]CashFlow{
		{Date: d, Amount: -1},
		{Date: d.AddDate(0, 1, 0), Amount: -2},
	})
	assert.Error(t, err)

	_, err = XIRR([]CashFlow{{Date: d, Amount: -1}})
	assert.Error(t, err)
}

func TestAddBusinessDays_SkipsWeekend(t *testing.T) {
	// Friday + 2 business days lands on Tuesday.
	friday := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Friday, friday.Weekday())

	got := AddBusinessDays(friday, 2)
	assert.Equal(t, time.Tuesday, got.Weekday())
	assert.Equal(t, 4, got.Day()-friday.Day())
}

func TestDaysBetween_FloorsAtZero(t *testing.T) {
	now := time.Now()
	assert.Zero(t, DaysBetween(now, now.AddDate(0, 0, -3)))
	assert.Equal(t, 10.0, DaysBetween(now, now.AddDate(0, 0, 10)))
}
