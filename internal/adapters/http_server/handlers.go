// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"holidaze/internal/app"
	"holidaze/internal/domain"
)

type Handlers struct {
	Q        *app.QueryService
	C        *app.CommandService
	Sessions domain.SessionStore
}

type problem struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Get("/", h.catalog)
	s.mux.Post("/login", h.login)
	s.mux.Post("/register", h.register)
	s.mux.Post("/logout", h.logout)
	s.mux.Get("/profile", h.profile)
	s.mux.Post("/profile/upgrade", h.upgrade)
	s.mux.Put("/profile/avatar", h.avatar)
	s.mux.Post("/create-venue", h.createVenue)
	s.mux.Get("/venue/{id}", h.venueDetail)
	s.mux.Put("/venue/{id}", h.updateVenue)
	s.mux.Delete("/venue/{id}", h.deleteVenue)
	s.mux.Post("/venue/{id}/book", h.book)

	s.mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusNotFound, "Not Found", "no such page")
	})
}

// ---- shared plumbing ----

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeFieldErrors(w http.ResponseWriter, fields map[string]string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	p := problem{Type: "about:blank", Title: "Validation Failed", Status: http.StatusUnprocessableEntity, Fields: fields}
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write field errors failed")
	}
}

// writeRemoteError maps a failed remote call to the view-local error state.
// Errors stop here; nothing propagates past the handler boundary.
func writeRemoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoSession), errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, http.StatusUnauthorized, "Logged Out", "log in to view this page")
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "Forbidden", "you do not have access to this resource")
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "the requested resource does not exist")
	case domain.IsServerError(err):
		writeProblem(w, http.StatusBadGateway, "Service Trouble",
			"We're having trouble processing your request. Please try again later.")
	default:
		writeProblem(w, http.StatusBadGateway, "Request Failed", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return false
	}
	return true
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeView(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write view body")
	}
}

func (h *Handlers) session(r *http.Request) domain.Session {
	sess, err := h.Sessions.Load(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("session load failed; treating as logged out")
		return domain.Session{}
	}
	return sess
}

// ---- views ----

func (h *Handlers) catalog(w http.ResponseWriter, r *http.Request) {
	view, err := h.Q.Catalog(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeRemoteError(w, err)
		return
	}
	writeView(w, r, view)
}

func (h *Handlers) venueDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := h.Q.VenueDetail(r.Context(), id, h.session(r))
	if err != nil {
		writeRemoteError(w, err)
		return
	}

	// optional stay quote, driven by picker params
	q := r.URL.Query()
	if fromS, toS := q.Get("from"), q.Get("to"); fromS != "" && toS != "" {
		from, errF := time.Parse("2006-01-02", fromS)
		to, errT := time.Parse("2006-01-02", toS)
		if errF != nil || errT != nil {
			writeProblem(w, http.StatusBadRequest, "Bad Request", "from/to must be calendar dates (YYYY-MM-DD)")
			return
		}
		quote, err := h.Q.Quote(r.Context(), id, from, to)
		if err != nil {
			writeRemoteError(w, err)
			return
		}
		view.Quote = &quote
	}
	writeView(w, r, view)
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) {
	view, err := h.Q.Profile(r.Context(), h.session(r))
	if err != nil {
		writeRemoteError(w, err)
		return
	}
	writeView(w, r, view)
}

// ---- session lifecycle ----

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	sess, err := h.C.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		// generic message; no field-level detail from the remote service
		writeProblem(w, http.StatusUnauthorized, "Authentication Failed", "check your email and password")
		return
	}
	writeJSON(w, http.StatusOK, sess.Profile)
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var f app.RegisterForm
	if !decode(w, r, &f) {
		return
	}
	sess, fields, err := h.C.Register(r.Context(), f)
	if errors.Is(err, app.ErrInvalid) {
		writeFieldErrors(w, fields)
		return
	}
	if err != nil {
		writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Profile)
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.C.Logout(r.Context()); err != nil {
		writeRemoteError(w, err)
		return
	}
	// the client follows this to the home view
	w.Header().Set("Location", "/")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) upgrade(w http.ResponseWriter, r *http.Request) {
	sess, err := h.C.UpgradeToManager(r.Context())
	if err != nil {
		writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Profile)
}

func (h *Handlers) avatar(w http.ResponseWriter, r *http.Request) {
	var f app.AvatarForm
	if !decode(w, r, &f) {
		return
	}
	sess, fields, err := h.C.SetAvatar(r.Context(), f)
	if errors.Is(err, app.ErrInvalid) {
		writeFieldErrors(w, fields)
		return
	}
	if err != nil {
		writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Profile)
}

// ---- venue management ----

func (h *Handlers) createVenue(w http.ResponseWriter, r *http.Request) {
	var f app.VenueForm
	if !decode(w, r, &f) {
		return
	}
	v, fields, err := h.C.CreateVenue(r.Context(), f)
	if errors.Is(err, app.ErrInvalid) {
		writeFieldErrors(w, fields)
		return
	}
	if err != nil {
		writeRemoteError(w, err)
		return
	}
	w.Header().Set("Location", "/venue/"+v.ID)
	writeJSON(w, http.StatusCreated, v)
}

func (h *Handlers) updateVenue(w http.ResponseWriter, r *http.Request) {
	var f app.VenueForm
	if !decode(w, r, &f) {
		return
	}
	v, fields, err := h.C.UpdateVenue(r.Context(), chi.URLParam(r, "id"), f)
	if errors.Is(err, app.ErrInvalid) {
		writeFieldErrors(w, fields)
		return
	}
	if err != nil {
		writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) deleteVenue(w http.ResponseWriter, r *http.Request) {
	if err := h.C.DeleteVenue(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeRemoteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- booking ----

type bookingResult struct {
	State   string          `json:"state"` // success | error
	Booking *domain.Booking `json:"booking,omitempty"`
}

func (h *Handlers) book(w http.ResponseWriter, r *http.Request) {
	var f app.BookingForm
	if !decode(w, r, &f) {
		return
	}
	b, fields, err := h.C.CreateBooking(r.Context(), chi.URLParam(r, "id"), f)
	if errors.Is(err, app.ErrInvalid) {
		writeFieldErrors(w, fields)
		return
	}
	if err != nil {
		writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookingResult{State: "success", Booking: &b})
}
