package app

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Approved account domains; registration rejects anything else.
var approvedEmailDomains = []string{"@noroff.no", "@stud.noroff.no"}

// RegisterForm is the registration input. Field names match the remote API
// payload so a validated form marshals straight through.
type RegisterForm struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email,approved_domain"`
	Password     string `json:"password" validate:"required,min=8"`
	Avatar       string `json:"avatar" validate:"omitempty,url"`
	VenueManager bool   `json:"venueManager"`
}

type VenueForm struct {
	Name        string       `json:"name" validate:"required"`
	Description string       `json:"description" validate:"required"`
	Media       []string     `json:"media" validate:"max=5,dive,omitempty,url"`
	Price       float64      `json:"price" validate:"gte=0"`
	MaxGuests   int          `json:"maxGuests" validate:"required,gte=1,lte=100"`
	Rating      *float64     `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Location    LocationForm `json:"location"`
	Meta        MetaForm     `json:"meta"`
}

type LocationForm struct {
	Address   string  `json:"address"`
	City      string  `json:"city"`
	Zip       string  `json:"zip"`
	Country   string  `json:"country"`
	Continent string  `json:"continent"`
	Lat       float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng       float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type MetaForm struct {
	Wifi      bool `json:"wifi"`
	Parking   bool `json:"parking"`
	Breakfast bool `json:"breakfast"`
	Pets      bool `json:"pets"`
}

// BookingForm carries a booking submission; dates are calendar-date strings.
type BookingForm struct {
	DateFrom string `json:"dateFrom" validate:"required,datetime=2006-01-02"`
	DateTo   string `json:"dateTo" validate:"required,datetime=2006-01-02"`
	Guests   int    `json:"guests" validate:"required,gte=1"`
}

type AvatarForm struct {
	Avatar string `json:"avatar" validate:"required,url"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("approved_domain", func(fl validator.FieldLevel) bool {
		email := strings.ToLower(fl.Field().String())
		for _, d := range approvedEmailDomains {
			if strings.HasSuffix(email, d) {
				return true
			}
		}
		return false
	})
	return v
}

// fieldErrors flattens a validation error into per-field inline messages.
// Returns nil when err carries no field errors.
func fieldErrors(err error) map[string]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fieldName(fe)] = fieldMessage(fe)
	}
	return out
}

func fieldName(fe validator.FieldError) string {
	// drop the struct prefix: "VenueForm.Location.Lat" -> "location.lat"
	parts := strings.Split(fe.Namespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i := range parts {
		parts[i] = strings.ToLower(parts[i][:1]) + parts[i][1:]
	}
	return strings.Join(parts, ".")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "approved_domain":
		return "Email must end with " + strings.Join(approvedEmailDomains, " or ")
	case "min":
		if fe.Field() == "Password" {
			return "Password must be at least 8 characters"
		}
		return fe.Field() + " is too short"
	case "url":
		return "Invalid URL format"
	case "gte":
		return fe.Field() + " is below the allowed minimum"
	case "lte":
		return fe.Field() + " is above the allowed maximum"
	case "max":
		return fe.Field() + " has too many entries"
	case "datetime":
		return fe.Field() + " must be a calendar date (YYYY-MM-DD)"
	default:
		return fe.Field() + " is invalid"
	}
}

// venueBody shapes a validated venue form into the remote API payload,
// dropping blank media entries (the form keeps empty slots while editing).
func venueBody(f VenueForm) map[string]any {
	media := make([]string, 0, len(f.Media))
	for _, u := range f.Media {
		if strings.TrimSpace(u) != "" {
			media = append(media, u)
		}
	}
	rating := 0.0
	if f.Rating != nil {
		rating = *f.Rating
	}
	return map[string]any{
		"name":        f.Name,
		"description": f.Description,
		"media":       media,
		"price":       f.Price,
		"maxGuests":   f.MaxGuests,
		"rating":      rating,
		"location": map[string]any{
			"address":   f.Location.Address,
			"city":      f.Location.City,
			"zip":       f.Location.Zip,
			"country":   f.Location.Country,
			"continent": f.Location.Continent,
			"lat":       f.Location.Lat,
			"lng":       f.Location.Lng,
		},
		"meta": map[string]any{
			"wifi":      f.Meta.Wifi,
			"parking":   f.Meta.Parking,
			"breakfast": f.Meta.Breakfast,
			"pets":      f.Meta.Pets,
		},
	}
}
