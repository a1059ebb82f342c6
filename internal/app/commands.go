package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"holidaze/internal/domain"
)

// ErrInvalid wraps client-side validation failures; the per-field messages
// travel alongside in FieldErrors.
var ErrInvalid = errors.New("validation failed")

// CommandService owns the write paths: session lifecycle, venue management,
// booking creation. All session mutation goes through the injected store.
type CommandService struct {
	client   domain.MarketClient
	sessions domain.SessionStore
	cache    domain.Cache
	validate *validator.Validate
	inflight singleflight.Group
}

func NewCommandService(c domain.MarketClient, st domain.SessionStore, cache domain.Cache) *CommandService {
	return &CommandService{client: c, sessions: st, cache: cache, validate: newValidator()}
}

// ---- session lifecycle ----

// Login authenticates against the remote service and persists the session.
// Remote failures surface as a generic error; no field detail is assumed.
func (s *CommandService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	payload, err := s.client.Login(ctx, email, password)
	if err != nil {
		return domain.Session{}, err
	}
	profile, token := mapAuthResponse(payload)
	if token == "" {
		return domain.Session{}, fmt.Errorf("login response carried no token")
	}
	sess := domain.Session{Profile: &profile, Token: token}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// Register validates the form, creates the account, and persists whatever
// session the response carries. Validation failures return ErrInvalid with
// per-field messages.
func (s *CommandService) Register(ctx context.Context, f RegisterForm) (domain.Session, map[string]string, error) {
	if err := s.validate.Struct(f); err != nil {
		return domain.Session{}, fieldErrors(err), ErrInvalid
	}

	body := map[string]any{
		"name":         f.Name,
		"email":        f.Email,
		"password":     f.Password,
		"venueManager": f.VenueManager,
	}
	if f.Avatar != "" {
		body["avatar"] = f.Avatar
	}
	payload, err := s.client.Register(ctx, body)
	if err != nil {
		return domain.Session{}, nil, err
	}

	profile, token := mapAuthResponse(payload)
	if token == "" {
		// some deployments require a separate login after registration
		return domain.Session{Profile: &profile}, nil, nil
	}
	sess := domain.Session{Profile: &profile, Token: token}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return domain.Session{}, nil, err
	}
	return sess, nil, nil
}

// Logout clears the persisted session; both keys go together.
func (s *CommandService) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}

// UpgradeToManager flips venueManager on the remote profile and patches the
// persisted session copy optimistically.
func (s *CommandService) UpgradeToManager(ctx context.Context) (domain.Session, error) {
	sess, err := s.sessions.Load(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if !sess.LoggedIn() {
		return domain.Session{}, domain.ErrNoSession
	}
	patch := map[string]any{"venueManager": true}
	if _, err := s.client.UpdateProfile(ctx, sess.Token, sess.Profile.Name, patch); err != nil {
		return domain.Session{}, err
	}
	return s.sessions.ApplyProfile(ctx, func(p *domain.Profile) { p.VenueManager = true })
}

// SetAvatar updates the avatar URL remotely, then patches the session copy.
func (s *CommandService) SetAvatar(ctx context.Context, f AvatarForm) (domain.Session, map[string]string, error) {
	if err := s.validate.Struct(f); err != nil {
		return domain.Session{}, fieldErrors(err), ErrInvalid
	}
	sess, err := s.sessions.Load(ctx)
	if err != nil {
		return domain.Session{}, nil, err
	}
	if !sess.LoggedIn() {
		return domain.Session{}, nil, domain.ErrNoSession
	}
	patch := map[string]any{"avatar": f.Avatar}
	if _, err := s.client.UpdateProfile(ctx, sess.Token, sess.Profile.Name, patch); err != nil {
		return domain.Session{}, nil, err
	}
	sess, err = s.sessions.ApplyProfile(ctx, func(p *domain.Profile) { p.Avatar = f.Avatar })
	return sess, nil, err
}

// ---- venue management ----

func (s *CommandService) CreateVenue(ctx context.Context, f VenueForm) (domain.Venue, map[string]string, error) {
	if err := s.validate.Struct(f); err != nil {
		return domain.Venue{}, fieldErrors(err), ErrInvalid
	}
	sess, err := s.sessions.Load(ctx)
	if err != nil {
		return domain.Venue{}, nil, err
	}
	if !sess.LoggedIn() {
		return domain.Venue{}, nil, domain.ErrNoSession
	}
	payload, err := s.client.CreateVenue(ctx, sess.Token, venueBody(f))
	if err != nil {
		return domain.Venue{}, nil, err
	}
	v := mapVenue(payload)
	// new venue changes the catalog
	_ = s.cache.Del(ctx, catalogKey)
	return v, nil, nil
}

func (s *CommandService) UpdateVenue(ctx context.Context, id string, f VenueForm) (domain.Venue, map[string]string, error) {
	if err := s.validate.Struct(f); err != nil {
		return domain.Venue{}, fieldErrors(err), ErrInvalid
	}
	sess, err := s.sessions.Load(ctx)
	if err != nil {
		return domain.Venue{}, nil, err
	}
	if !sess.LoggedIn() {
		return domain.Venue{}, nil, domain.ErrNoSession
	}
	payload, err := s.client.UpdateVenue(ctx, sess.Token, id, venueBody(f))
	if err != nil {
		return domain.Venue{}, nil, err
	}
	s.invalidateVenue(ctx, id)
	return mapVenue(payload), nil, nil
}

func (s *CommandService) DeleteVenue(ctx context.Context, id string) error {
	sess, err := s.sessions.Load(ctx)
	if err != nil {
		return err
	}
	if !sess.LoggedIn() {
		return domain.ErrNoSession
	}
	if err := s.client.DeleteVenue(ctx, sess.Token, id); err != nil {
		return err
	}
	s.invalidateVenue(ctx, id)
	return nil
}

func (s *CommandService) invalidateVenue(ctx context.Context, id string) {
	_ = s.cache.Del(ctx, venueKey(id))
	_ = s.cache.Del(ctx, catalogKey)
}

// ---- booking creation ----

// CreateBooking submits a booking for the venue. Preconditions: both dates
// present, guests within 1..maxGuests, an active session. Identical
// concurrent submissions (rapid double clicks) collapse into one remote
// call; distinct submissions stay independent.
func (s *CommandService) CreateBooking(ctx context.Context, venueID string, f BookingForm) (domain.Booking, map[string]string, error) {
	if err := s.validate.Struct(f); err != nil {
		return domain.Booking{}, fieldErrors(err), ErrInvalid
	}
	sess, err := s.sessions.Load(ctx)
	if err != nil {
		return domain.Booking{}, nil, err
	}
	if !sess.LoggedIn() {
		return domain.Booking{}, nil, domain.ErrNoSession
	}

	from, _ := time.Parse("2006-01-02", f.DateFrom)
	to, _ := time.Parse("2006-01-02", f.DateTo)
	if to.Before(from) {
		return domain.Booking{}, map[string]string{"dateTo": "Check-out must not be before check-in"}, ErrInvalid
	}

	raw, err := s.client.GetVenue(ctx, venueID, false, false)
	if err != nil {
		return domain.Booking{}, nil, err
	}
	venue := mapVenue(raw)
	if venue.MaxGuests > 0 && f.Guests > venue.MaxGuests {
		msg := fmt.Sprintf("Guests must be between 1 and %d", venue.MaxGuests)
		return domain.Booking{}, map[string]string{"guests": msg}, ErrInvalid
	}

	key := fmt.Sprintf("%s|%s|%s|%d", venueID, f.DateFrom, f.DateTo, f.Guests)
	res, err, _ := s.inflight.Do(key, func() (any, error) {
		body := map[string]any{
			"dateFrom": f.DateFrom,
			"dateTo":   f.DateTo,
			"guests":   f.Guests,
			"venueId":  venueID,
		}
		payload, err := s.client.CreateBooking(ctx, sess.Token, body)
		if err != nil {
			return nil, err
		}
		return mapBooking(payload), nil
	})
	if err != nil {
		return domain.Booking{}, nil, err
	}

	// the venue's booked dates changed
	s.invalidateVenue(ctx, venueID)

	booking := res.(domain.Booking)
	if booking.VenueID == "" {
		booking.VenueID = venueID
	}
	return booking, nil, nil
}
