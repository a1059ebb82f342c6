package domain

import "strings"

type Profile struct {
	Name         string
	Email        string
	Avatar       string
	VenueManager bool
}

// Session is the persisted {profile, token} pair identifying the current
// user. A zero Session is the logged-out state.
type Session struct {
	Profile *Profile
	Token   string
}

func (s Session) LoggedIn() bool { return s.Token != "" && s.Profile != nil }

// Owns reports whether the session user is the venue's owner. This is a
// display gate only; the remote service holds the authoritative check.
func (s Session) Owns(v Venue) bool {
	if !s.LoggedIn() || v.Owner == nil {
		return false
	}
	return strings.EqualFold(s.Profile.Email, v.Owner.Email)
}
