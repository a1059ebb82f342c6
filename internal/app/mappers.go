package app

import (
	"strconv"
	"strings"
	"time"

	"holidaze/internal/domain"
)

/********** alias registries (single source of truth) **********/

var venueAliases = map[string][]string{
	"id":          {"id", "venueId", "venue_id"},
	"name":        {"name", "title"},
	"description": {"description", "desc"},
	"price":       {"price", "pricePerNight", "price_per_night"},
	"maxGuests":   {"maxGuests", "max_guests", "capacity"},
	"rating":      {"rating", "score"},
	"created":     {"created", "createdAt", "created_at"},
}

var bookingAliases = map[string][]string{
	"id":       {"id", "bookingId", "booking_id"},
	"dateFrom": {"dateFrom", "date_from", "from"},
	"dateTo":   {"dateTo", "date_to", "to"},
	"guests":   {"guests", "guestCount", "guest_count"},
	"venueId":  {"venueId", "venue_id", "venue.id"},
	"created":  {"created", "createdAt", "created_at"},
}

var profileAliases = map[string][]string{
	"name":   {"name", "userName", "username"},
	"email":  {"email", "mail"},
	"avatar": {"avatar", "avatarUrl", "avatar_url", "image"},
	"token":  {"accessToken", "access_token", "token", "authToken"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstStr: first non-empty string for a named alias set.
func firstStr(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

// firstFloat: number from several paths (float64/int/string like "8,0").
func firstFloat(m map[string]any, paths ...string) (float64, bool) {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func firstBool(m map[string]any, paths ...string) bool {
	for _, k := range paths {
		if b, ok := lookupAny(m, k).(bool); ok {
			return b
		}
	}
	return false
}

// firstSliceStrings: accept []any with either strings or {url/src} objects.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		if raw, ok := lookupAny(m, k).([]any); ok {
			out := make([]string, 0, len(raw))
			for _, it := range raw {
				switch t := it.(type) {
				case string:
					if t != "" {
						out = append(out, t)
					}
				case map[string]any:
					if u, ok := t["url"].(string); ok && u != "" {
						out = append(out, u)
						continue
					}
					if u, ok := t["src"].(string); ok && u != "" {
						out = append(out, u)
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

// firstTime parses the first parseable timestamp among the paths. Accepts
// RFC3339 (with or without sub-second precision) and bare calendar dates.
func firstTime(m map[string]any, paths ...string) time.Time {
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}
	for _, k := range paths {
		s, ok := lookupAny(m, k).(string)
		if !ok || s == "" {
			continue
		}
		for _, l := range layouts {
			if t, err := time.Parse(l, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

/********** venue mapper **********/

func mapVenue(m map[string]any) domain.Venue {
	v := domain.Venue{
		ID:          firstStr(m, venueAliases, "id"),
		Name:        firstStr(m, venueAliases, "name"),
		Description: firstStr(m, venueAliases, "description"),
		Media:       firstSliceStrings(m, "media", "images", "photos"),
		Created:     firstTime(m, venueAliases["created"]...),
	}
	if f, ok := firstFloat(m, venueAliases["price"]...); ok {
		v.Price = f
	}
	if f, ok := firstFloat(m, venueAliases["maxGuests"]...); ok {
		v.MaxGuests = int(f)
	}
	if f, ok := firstFloat(m, venueAliases["rating"]...); ok {
		v.Rating = &f
	}

	if loc, ok := lookupAny(m, "location").(map[string]any); ok {
		v.Location = domain.Location{
			Address:   lookupStr(loc, "address"),
			City:      lookupStr(loc, "city"),
			Zip:       lookupStr(loc, "zip"),
			Country:   lookupStr(loc, "country"),
			Continent: lookupStr(loc, "continent"),
		}
		if f, ok := firstFloat(loc, "lat", "latitude"); ok {
			v.Location.Lat = f
		}
		if f, ok := firstFloat(loc, "lng", "lon", "longitude"); ok {
			v.Location.Lng = f
		}
	}

	if meta, ok := lookupAny(m, "meta").(map[string]any); ok {
		v.Meta = domain.Meta{
			Wifi:      firstBool(meta, "wifi"),
			Parking:   firstBool(meta, "parking"),
			Breakfast: firstBool(meta, "breakfast"),
			Pets:      firstBool(meta, "pets"),
		}
	}

	if owner, ok := lookupAny(m, "owner").(map[string]any); ok {
		p := mapProfile(owner)
		v.Owner = &p
	}

	if raw, ok := lookupAny(m, "bookings").([]any); ok {
		for _, it := range raw {
			if bm, ok := it.(map[string]any); ok {
				v.Bookings = append(v.Bookings, mapBooking(bm))
			}
		}
	}
	return v
}

func mapVenues(in []map[string]any) []domain.Venue {
	out := make([]domain.Venue, 0, len(in))
	for _, m := range in {
		out = append(out, mapVenue(m))
	}
	return out
}

/********** booking mapper **********/

func mapBooking(m map[string]any) domain.Booking {
	b := domain.Booking{
		ID:       firstStr(m, bookingAliases, "id"),
		DateFrom: firstTime(m, bookingAliases["dateFrom"]...),
		DateTo:   firstTime(m, bookingAliases["dateTo"]...),
		VenueID:  firstStr(m, bookingAliases, "venueId"),
		Created:  firstTime(m, bookingAliases["created"]...),
	}
	if f, ok := firstFloat(m, bookingAliases["guests"]...); ok {
		b.Guests = int(f)
	}
	if vm, ok := lookupAny(m, "venue").(map[string]any); ok {
		v := mapVenue(vm)
		b.Venue = &v
		if b.VenueID == "" {
			b.VenueID = v.ID
		}
	}
	return b
}

func mapBookings(in []any) []domain.Booking {
	var out []domain.Booking
	for _, it := range in {
		if m, ok := it.(map[string]any); ok {
			out = append(out, mapBooking(m))
		}
	}
	return out
}

/********** profile mapper **********/

func mapProfile(m map[string]any) domain.Profile {
	return domain.Profile{
		Name:         firstStr(m, profileAliases, "name"),
		Email:        firstStr(m, profileAliases, "email"),
		Avatar:       firstStr(m, profileAliases, "avatar"),
		VenueManager: firstBool(m, "venueManager", "venue_manager"),
	}
}

// mapAuthResponse splits a login/registration payload into the profile and
// the bearer token it carries.
func mapAuthResponse(m map[string]any) (domain.Profile, string) {
	return mapProfile(m), firstStr(m, profileAliases, "token")
}
