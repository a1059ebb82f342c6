package domain

import (
	"math"
	"time"
)

// TotalPrice returns the stay total: nights between start and end times the
// nightly price. Returns 0 when either date or the price is missing. Both
// dates are normalized to midnight local time first, so time-of-day carried
// by picker values cannot skew the night count. An end date on or before the
// start date prices as 0 nights; inverted ranges do not produce negative
// totals.
func TotalPrice(start, end *time.Time, nightly float64) float64 {
	if start == nil || end == nil || start.IsZero() || end.IsZero() || nightly == 0 {
		return 0
	}
	s := midnight(*start)
	e := midnight(*end)
	nights := math.Round(e.Sub(s).Hours() / 24)
	if nights <= 0 {
		return 0
	}
	return nights * nightly
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
