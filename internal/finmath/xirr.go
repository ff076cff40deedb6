package finmath

import (
	"errors"
	"math"
	"time"
)

// CashFlow is one dated flow in an IRR schedule. Outflows are negative.
type CashFlow struct {
	Date   time.Time
	Amount float64
}

const daysPerYear = 365.0

// npv discounts the schedule at annual rate r, act/365 from the first flow.
func npv(rate float64, flows []CashFlow) float64 {
	t0 := flows[0].Date
	var sum float64
	for _, cf := range flows {
		years := cf.Date.Sub(t0).Hours() / 24 / daysPerYear
		sum += cf.Amount / math.Pow(1+rate, years)
	}
	return sum
}

// XIRR solves the annualized internal rate of return for an irregular
// cash-flow schedule. Newton iteration with a bisection fallback; the
// schedule needs at least one negative and one positive flow.
func XIRR(flows []CashFlow) (float64, error) {
	if len(flows) < 2 {
		return 0, errors.New("xirr: need at least two cash flows")
	}
	hasPos, hasNeg := false, false
	for _, cf := range flows {
		if cf.Amount > 0 {
			hasPos = true
		}
		if cf.Amount < 0 {
			hasNeg = true
		}
	}
	if !hasPos || !hasNeg {
		return 0, errors.New("xirr: need both inflows and outflows")
	}

	rate := 0.1
	for i := 0; i < 100; i++ {
		v := npv(rate, flows)
		const h = 1e-6
		deriv := (npv(rate+h, flows) - v) / h
		if deriv == 0 {
			break
		}
		next := rate - v/deriv
		if !Finite(next) || next <= -1 {
			break
		}
		if math.Abs(next-rate) < 1e-9 {
			if !Finite(next) {
				return 0, errors.New("xirr: diverged")
			}
			return next, nil
		}
		rate = next
	}

	// Bisection over a wide bracket when Newton fails to converge.
	lo, hi := -0.9999, 10.0
	vlo, vhi := npv(lo, flows), npv(hi, flows)
	if vlo*vhi > 0 {
		return 0, errors.New("xirr: no sign change in bracket")
	}
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		vm := npv(mid, flows)
		if math.Abs(vm) < 1e-10 || hi-lo < 1e-10 {
			return mid, nil
		}
		if vlo*vm < 0 {
			hi = mid
		} else {
			lo, vlo = mid, vm
		}
	}
	return (lo + hi) / 2, nil
}
