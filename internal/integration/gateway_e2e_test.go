//go:build integration || !unit

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	httpserver "holidaze/internal/adapters/http_server"
	"holidaze/internal/adapters/market"
	redisad "holidaze/internal/adapters/redis"
	"holidaze/internal/adapters/session"
	"holidaze/internal/app"
)

// ---------- stub marketplace service ----------

type stubMarket struct {
	mu       sync.Mutex
	bookings []map[string]any
}

func (m *stubMarket) venue() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := map[string]any{
		"id": "v-1", "name": "Harbor House", "description": "By the water",
		"created": "2024-01-01T10:00:00Z",
		"media":   []any{"https://img/1.jpg"},
		"price":   100.0, "maxGuests": 4.0,
		"owner": map[string]any{"name": "ana", "email": "ana@noroff.no"},
	}
	v["bookings"] = append([]map[string]any{
		{"id": "b-0", "dateFrom": "2024-03-10", "dateTo": "2024-03-12", "guests": 2.0},
	}, m.bookings...)
	return v
}

func (m *stubMarket) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["email"] != "bob@stud.noroff.no" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, 200, map[string]any{
			"name": "bob", "email": "bob@stud.noroff.no",
			"venueManager": false, "accessToken": "tok-e2e",
		})
	})

	mux.HandleFunc("/venues", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []map[string]any{m.venue()})
	})
	mux.HandleFunc("/venues/v-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, m.venue())
	})

	mux.HandleFunc("/bookings", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-e2e" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		m.mu.Lock()
		id := fmt.Sprintf("b-%d", len(m.bookings)+1)
		b := map[string]any{
			"id": id, "dateFrom": in["dateFrom"], "dateTo": in["dateTo"],
			"guests": in["guests"],
		}
		m.bookings = append(m.bookings, b)
		m.mu.Unlock()
		writeJSON(w, 201, b)
	})

	mux.HandleFunc("/profiles/bob", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-e2e" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		m.mu.Lock()
		bookings := append([]map[string]any{}, m.bookings...)
		m.mu.Unlock()
		writeJSON(w, 200, map[string]any{
			"name": "bob", "email": "bob@stud.noroff.no", "venueManager": false,
			"bookings": bookings,
			"venues":   []any{},
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ---------- the test ----------

func TestGateway_EndToEnd_LoginBrowseBook(t *testing.T) {
	stub := &stubMarket{}
	remote := httptest.NewServer(stub.handler(t))
	defer remote.Close()

	client, err := market.New(remote.URL, 50)
	if err != nil {
		t.Fatalf("market client: %v", err)
	}

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)

	store, err := session.Open(t.TempDir())
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	defer store.Close()

	q := app.NewQueryService(client, cache, time.Minute)
	c := app.NewCommandService(client, store, cache)
	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{Q: q, C: c, Sessions: store})
	gw := httptest.NewServer(srv.Mux())
	defer gw.Close()

	// anonymous catalog browse
	var catalog app.CatalogView
	getJSON(t, gw.URL+"/", &catalog)
	if len(catalog.Items) != 1 || catalog.Items[0].Name != "Harbor House" {
		t.Fatalf("unexpected catalog: %+v", catalog)
	}

	// profile before login renders logged out
	resp, err := http.Get(gw.URL + "/profile")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 before login, got %d", resp.StatusCode)
	}

	// login persists the session in the badger store
	resp = postJSON(t, gw.URL+"/login", `{"email":"bob@stud.noroff.no","password":"hunter22"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// detail view with a stay quote
	var detail app.VenueDetailView
	getJSON(t, gw.URL+"/venue/v-1?from=2024-04-01&to=2024-04-04", &detail)
	if len(detail.ExcludedDates) != 3 { // 2024-03-10..12 inclusive
		t.Fatalf("excluded dates: %v", detail.ExcludedDates)
	}
	if detail.Quote == nil || *detail.Quote != 300 {
		t.Fatalf("expected quote 300, got %v", detail.Quote)
	}
	if detail.CanEdit {
		t.Fatalf("bob does not own this venue")
	}

	// book a stay
	resp = postJSON(t, gw.URL+"/venue/v-1/book", `{"dateFrom":"2024-04-01","dateTo":"2024-04-04","guests":2}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("booking status %d", resp.StatusCode)
	}
	var result struct {
		State string `json:"state"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()
	if result.State != "success" {
		t.Fatalf("expected success state, got %q", result.State)
	}

	// the booking invalidated the cached venue; the detail view now shows
	// the new dates as excluded
	getJSON(t, gw.URL+"/venue/v-1", &detail)
	joined := strings.Join(detail.ExcludedDates, ",")
	if !strings.Contains(joined, "2024-04-01") || !strings.Contains(joined, "2024-04-04") {
		t.Fatalf("new booking dates missing from excluded set: %v", detail.ExcludedDates)
	}

	// profile shows the booking
	var profile app.ProfileView
	getJSON(t, gw.URL+"/profile", &profile)
	if profile.Profile.Name != "bob" || len(profile.Bookings) != 1 {
		t.Fatalf("unexpected profile view: %+v", profile)
	}

	// logout clears the store; the profile mount is logged out again
	resp, err = http.Post(gw.URL+"/logout", "application/json", nil)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status %d", resp.StatusCode)
	}
	resp, _ = http.Get(gw.URL + "/profile")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

// ---------- helpers ----------

func getJSON(t *testing.T, u string, dst any) {
	t.Helper()
	resp, err := http.Get(u)
	if err != nil {
		t.Fatalf("GET %s: %v", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", u, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("GET %s: decode: %v", u, err)
	}
}

func postJSON(t *testing.T, u, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(u, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("POST %s: %v", u, err)
	}
	return resp
}
