package app

import (
	"context"
	"sort"
	"strings"
	"time"

	"holidaze/internal/domain"
)

const (
	catalogKey   = "catalog"
	catalogLimit = 100
)

func venueKey(id string) string { return "venue:" + id }

// QueryService serves the read-side views: catalog, venue detail, profile.
// Remote reads go through the cache-aside view cache.
type QueryService struct {
	client   domain.MarketClient
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(c domain.MarketClient, cache domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{client: c, cache: cache, cacheTTL: ttl}
}

type CatalogView struct {
	Query string         `json:"query,omitempty"`
	Items []domain.Venue `json:"items"`
}

// Catalog lists venues for the home view: only venues with media, newest
// first, optionally filtered by a case-insensitive name substring. The
// unfiltered list is cached; searches share the same entry.
func (s *QueryService) Catalog(ctx context.Context, query string) (CatalogView, error) {
	var venues []domain.Venue
	if ok, _ := s.cache.Get(ctx, catalogKey, &venues); !ok {
		raw, err := s.client.ListVenues(ctx, catalogLimit, true, true)
		if err != nil {
			return CatalogView{}, err
		}
		all := mapVenues(raw)
		venues = venues[:0]
		for _, v := range all {
			if v.HasMedia() {
				venues = append(venues, v)
			}
		}
		sort.SliceStable(venues, func(i, j int) bool {
			return venues[i].Created.After(venues[j].Created)
		})
		_ = s.cache.Set(ctx, catalogKey, venues, int(s.cacheTTL.Seconds()))
	}

	if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
		filtered := make([]domain.Venue, 0, len(venues))
		for _, v := range venues {
			if strings.Contains(strings.ToLower(v.Name), q) {
				filtered = append(filtered, v)
			}
		}
		venues = filtered
	}
	return CatalogView{Query: query, Items: venues}, nil
}

type VenueDetailView struct {
	Venue         domain.Venue `json:"venue"`
	ExcludedDates []string     `json:"excludedDates"`
	Quote         *float64     `json:"quote,omitempty"`

	// Owner-only panel. CanEdit gates the Edit/Delete controls; the upcoming
	// bookings and projected income render only for the owner. Display gate
	// only; the remote service enforces the real authorization.
	CanEdit          bool             `json:"canEdit"`
	UpcomingBookings []domain.Booking `json:"upcomingBookings,omitempty"`
	ProjectedIncome  float64          `json:"projectedIncome,omitempty"`
}

// VenueDetail builds the detail/booking view: the venue with its bookings
// and owner, the excluded (already booked) dates for the pickers, and the
// owner panel when the session user owns the venue.
func (s *QueryService) VenueDetail(ctx context.Context, id string, sess domain.Session) (VenueDetailView, error) {
	v, err := s.venue(ctx, id)
	if err != nil {
		return VenueDetailView{}, err
	}

	view := VenueDetailView{Venue: v}
	for _, d := range domain.BookedDates(v.Bookings).Dates() {
		view.ExcludedDates = append(view.ExcludedDates, d.Format("2006-01-02"))
	}

	if sess.Owns(v) {
		view.CanEdit = true
		today := domain.Day(time.Now())
		for _, b := range v.Bookings {
			if !domain.Day(b.DateTo).Before(today) {
				view.UpcomingBookings = append(view.UpcomingBookings, b)
				from, to := b.DateFrom, b.DateTo
				view.ProjectedIncome += domain.TotalPrice(&from, &to, v.Price)
			}
		}
	}
	return view, nil
}

// Quote prices a candidate stay against a venue's nightly rate.
func (s *QueryService) Quote(ctx context.Context, id string, from, to time.Time) (float64, error) {
	v, err := s.venue(ctx, id)
	if err != nil {
		return 0, err
	}
	return domain.TotalPrice(&from, &to, v.Price), nil
}

func (s *QueryService) venue(ctx context.Context, id string) (domain.Venue, error) {
	key := venueKey(id)
	var v domain.Venue
	if ok, _ := s.cache.Get(ctx, key, &v); ok {
		return v, nil
	}
	raw, err := s.client.GetVenue(ctx, id, true, true)
	if err != nil {
		return domain.Venue{}, err
	}
	if raw == nil {
		return domain.Venue{}, domain.ErrNotFound
	}
	v = mapVenue(raw)
	_ = s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds()))
	return v, nil
}

type ProfileView struct {
	Profile  domain.Profile   `json:"profile"`
	Bookings []domain.Booking `json:"bookings"`
	Venues   []domain.Venue   `json:"venues"`
}

// Profile fetches the session user's profile with their bookings and owned
// venues. Requires a logged-in session; never cached, the profile view must
// reflect writes immediately.
func (s *QueryService) Profile(ctx context.Context, sess domain.Session) (ProfileView, error) {
	if !sess.LoggedIn() {
		return ProfileView{}, domain.ErrNoSession
	}
	raw, err := s.client.GetProfile(ctx, sess.Token, sess.Profile.Name, true, true)
	if err != nil {
		return ProfileView{}, err
	}
	if raw == nil {
		return ProfileView{}, domain.ErrNotFound
	}

	view := ProfileView{Profile: mapProfile(raw)}
	if raw, ok := raw["bookings"].([]any); ok {
		view.Bookings = mapBookings(raw)
	}
	if raw, ok := raw["venues"].([]any); ok {
		for _, it := range raw {
			if m, ok := it.(map[string]any); ok {
				view.Venues = append(view.Venues, mapVenue(m))
			}
		}
	}
	return view, nil
}
