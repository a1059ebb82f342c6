package domain

import "context"

// MarketClient talks to the remote venue/booking/profile service. Payloads
// stay loosely typed at this boundary; mapping to domain records happens in
// the app layer.
type MarketClient interface {
	// Auth
	Login(ctx context.Context, email, password string) (map[string]any, error)
	Register(ctx context.Context, body map[string]any) (map[string]any, error)

	// Profiles
	GetProfile(ctx context.Context, token, name string, withBookings, withVenues bool) (map[string]any, error)
	UpdateProfile(ctx context.Context, token, name string, patch map[string]any) (map[string]any, error)

	// Venues
	ListVenues(ctx context.Context, limit int, withBookings, withOwner bool) ([]map[string]any, error)
	GetVenue(ctx context.Context, id string, withBookings, withOwner bool) (map[string]any, error)
	CreateVenue(ctx context.Context, token string, body map[string]any) (map[string]any, error)
	UpdateVenue(ctx context.Context, token, id string, body map[string]any) (map[string]any, error)
	DeleteVenue(ctx context.Context, token, id string) error

	// Bookings
	CreateBooking(ctx context.Context, token string, body map[string]any) (map[string]any, error)
}

// SessionStore persists the session across restarts. Load returns a zero
// Session when nothing (or only an expired token) is stored. ApplyProfile is
// the single mutation point for optimistic profile patches.
type SessionStore interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
	ApplyProfile(ctx context.Context, patch func(*Profile)) (Session, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
