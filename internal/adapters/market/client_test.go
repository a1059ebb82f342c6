package market_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"holidaze/internal/adapters/market"
	"holidaze/internal/domain"
)

func TestClient_GetVenue_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "v-1", "name": "Cabin"})
		}
	}))
	defer ts.Close()

	cl, err := market.New(ts.URL, 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := cl.GetVenue(ctx, "v-1", true, true)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got["name"] != "Cabin" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_GetVenue_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, err := market.New(ts.URL, 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = cl.GetVenue(ctx, "missing", false, false)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_BearerAndIncludeFlags(t *testing.T) {
	var gotAuth, gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.WriteHeader(200)
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "ana"})
	}))
	defer ts.Close()

	cl, _ := market.New(ts.URL, 100)
	_, err := cl.GetProfile(context.Background(), "tok-123", "ana", true, true)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("missing bearer header, got %q", gotAuth)
	}
	if gotQuery != "_bookings=true&_venues=true" {
		t.Fatalf("unexpected include flags: %q", gotQuery)
	}
}

func TestClient_EmptyBodyMeansAbsentResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200) // 200 with no body
	}))
	defer ts.Close()

	cl, _ := market.New(ts.URL, 100)
	got, err := cl.GetVenue(context.Background(), "v-1", false, false)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != nil {
		t.Fatalf("expected absent result, got %+v", got)
	}
}

func TestClient_ErrorPayloadMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"Venue name is required"}]}`))
	}))
	defer ts.Close()

	cl, _ := market.New(ts.URL, 100)
	_, err := cl.CreateVenue(context.Background(), "tok", map[string]any{})
	var se *domain.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Status != 400 || se.Message != "Venue name is required" {
		t.Fatalf("unexpected status error: %+v", se)
	}
}
