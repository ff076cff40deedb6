// Package finmath collects the numeric helpers shared by the valuation
// pipeline: guarded division, the XIRR solver and day-count arithmetic.
// Every derived financial figure passes through these guards so NaN and
// Infinity never reach a forecast record.
package finmath

import "math"

// Finite reports whether v is a usable financial number.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SafeDiv divides a by b, returning false for zero denominators or a
// non-finite quotient.
func SafeDiv(a, b float64) (float64, bool) {
	if b == 0 {
		return 0, false
	}
	q := a / b
	if !Finite(q) {
		return 0, false
	}
	return q, true
}

// Discount computes price/nav - 1 under the standard guards.
func Discount(price, nav float64) (float64, bool) {
	q, ok := SafeDiv(price, nav)
	if !ok {
		return 0, false
	}
	return q - 1, true
}

// Ptr returns a pointer to v; shorthand for writing optional fields.
func Ptr(v float64) *float64 { return &v }

// AllFinite reports whether every value is finite.
func AllFinite(vs ...float64) bool {
	for _, v := range vs {
		if !Finite(v) {
			return false
		}
	}
	return true
}
