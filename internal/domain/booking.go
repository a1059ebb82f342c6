package domain

import "time"

// Booking is a reserved date range against a venue. DateFrom and DateTo are
// inclusive calendar dates; bookings are immutable once created.
type Booking struct {
	ID       string
	DateFrom time.Time
	DateTo   time.Time
	Guests   int
	VenueID  string
	Venue    *Venue // present on profile bookings when venues are included
	Created  time.Time
}
