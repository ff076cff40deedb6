package finmath

import "time"

// DaysBetween returns whole calendar days from a to b, floored at zero.
func DaysBetween(a, b time.Time) float64 {
	d := b.Sub(a).Hours() / 24
	if d < 0 {
		return 0
	}
	return float64(int(d))
}

// AddBusinessDays advances t by n weekdays, skipping Saturdays and
// Sundays. Exchange holidays are not modeled; settlement dates landing on
// a holiday shift the IRR horizon by a day, which is inside the noise of
// the estimate.
func AddBusinessDays(t time.Time, n int) time.Time {
	for n > 0 {
		t = t.AddDate(0, 0, 1)
		switch t.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		}
		n--
	}
	return t
}
