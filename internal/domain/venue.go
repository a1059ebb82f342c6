package domain

import "time"

type Venue struct {
	ID          string
	Name        string
	Description string
	Media       []string // ordered, 0-5 URLs
	Price       float64
	MaxGuests   int
	Rating      *float64
	Location    Location
	Meta        Meta
	Owner       *Profile
	Created     time.Time
	Bookings    []Booking // present when fetched with bookings included
}

type Location struct {
	Address   string
	City      string
	Zip       string
	Country   string
	Continent string
	Lat       float64
	Lng       float64
}

type Meta struct {
	Wifi      bool
	Parking   bool
	Breakfast bool
	Pets      bool
}

// HasMedia reports whether the venue carries at least one media URL.
// The catalog hides venues without one.
func (v Venue) HasMedia() bool { return len(v.Media) > 0 }
