package domain

import (
	"sort"
	"time"
)

// DateSet is a membership set of calendar days, keyed by midnight UTC.
type DateSet map[time.Time]struct{}

// Day truncates t to its calendar date, anchored at midnight UTC so that
// membership checks ignore time-of-day and zone skew.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s DateSet) Has(t time.Time) bool {
	_, ok := s[Day(t)]
	return ok
}

// Dates returns the members in ascending order.
func (s DateSet) Dates() []time.Time {
	out := make([]time.Time, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// BookedDates enumerates every calendar date covered by the given bookings,
// dateFrom through dateTo inclusive. A booking with dateFrom == dateTo
// contributes that single date; no bookings yields an empty set.
func BookedDates(bookings []Booking) DateSet {
	out := DateSet{}
	for _, b := range bookings {
		end := Day(b.DateTo)
		for d := Day(b.DateFrom); !d.After(end); d = d.AddDate(0, 0, 1) {
			out[d] = struct{}{}
		}
	}
	return out
}
