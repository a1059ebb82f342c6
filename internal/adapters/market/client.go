// internal/adapters/market/client.go
package market

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"holidaze/internal/adapters/observability"
	"holidaze/internal/domain"
)

// Client calls the remote marketplace service. Requests carry a bearer token
// when one is supplied and run behind a client-side rate limiter.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Auth ----

func (c *Client) Login(ctx context.Context, email, password string) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodPost, c.base+"/auth/login", "",
		map[string]any{"email": email, "password": password}, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, body map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodPost, c.base+"/auth/register", "", body, &out)
	return out, err
}

// ---- Profiles ----

func (c *Client) GetProfile(ctx context.Context, token, name string, withBookings, withVenues bool) (map[string]any, error) {
	u := c.base + "/profiles/" + url.PathEscape(name) + includes(map[string]bool{
		"_bookings": withBookings,
		"_venues":   withVenues,
	})
	var out map[string]any
	err := c.do(ctx, http.MethodGet, u, token, nil, &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, token, name string, patch map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodPut, c.base+"/profiles/"+url.PathEscape(name), token, patch, &out)
	return out, err
}

// ---- Venues ----

func (c *Client) ListVenues(ctx context.Context, limit int, withBookings, withOwner bool) ([]map[string]any, error) {
	u := fmt.Sprintf("%s/venues?limit=%d", c.base, limit)
	if withBookings {
		u += "&_bookings=true"
	}
	if withOwner {
		u += "&_owner=true"
	}
	var out []map[string]any
	err := c.do(ctx, http.MethodGet, u, "", nil, &out)
	return out, err
}

func (c *Client) GetVenue(ctx context.Context, id string, withBookings, withOwner bool) (map[string]any, error) {
	u := c.base + "/venues/" + url.PathEscape(id) + includes(map[string]bool{
		"_bookings": withBookings,
		"_owner":    withOwner,
	})
	var out map[string]any
	err := c.do(ctx, http.MethodGet, u, "", nil, &out)
	return out, err
}

func (c *Client) CreateVenue(ctx context.Context, token string, body map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodPost, c.base+"/venues", token, body, &out)
	return out, err
}

func (c *Client) UpdateVenue(ctx context.Context, token, id string, body map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodPut, c.base+"/venues/"+url.PathEscape(id), token, body, &out)
	return out, err
}

func (c *Client) DeleteVenue(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, c.base+"/venues/"+url.PathEscape(id), token, nil, nil)
}

// ---- Bookings ----

func (c *Client) CreateBooking(ctx context.Context, token string, body map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodPost, c.base+"/bookings", token, body, &out)
	return out, err
}

// ---- Internals ----

func includes(flags map[string]bool) string {
	var parts []string
	for k, on := range flags {
		if on {
			parts = append(parts, k+"=true")
		}
	}
	if len(parts) == 0 {
		return ""
	}
	// deterministic order for the two known flags
	if len(parts) == 2 && parts[0] > parts[1] {
		parts[0], parts[1] = parts[1], parts[0]
	}
	return "?" + strings.Join(parts, "&")
}

// do performs one API call with client-side rate limiting, retries on 429 and
// transient 5xx (honoring Retry-After), and a JSON decode into out. A 2xx
// with an empty body leaves out untouched, so callers see an absent result
// rather than a decode error.
func (c *Client) do(ctx context.Context, method, u, token string, body, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	endpoint := endpointLabel(u)
	var lastErr error
	for i := 0; i < 4; i++ {
		// fresh request each attempt
		var rdr io.Reader
		if payload != nil {
			rdr = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rdr)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "holidaze-gateway/1.0")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.ObserveExternal("market", endpoint, 0, time.Since(start))
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("market", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			b, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return err
			}
			// empty body on success -> absent result
			if len(bytes.TrimSpace(b)) == 0 || out == nil {
				return nil
			}
			return json.Unmarshal(b, out)

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return domain.ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return domain.ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return domain.ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			status := resp.StatusCode
			msg := apiMessage(resp.Body)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = &domain.StatusError{Status: status, Message: msg}
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			status := resp.StatusCode
			msg := apiMessage(resp.Body)
			resp.Body.Close()
			return &domain.StatusError{Status: status, Message: msg}
		}
	}

	return lastErr
}

// apiMessage pulls the first message out of the service's error payload,
// shaped {"errors":[{"message":"..."}]}; falls back to the raw body.
func apiMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	var payload struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(b, &payload); err == nil && len(payload.Errors) > 0 {
		return payload.Errors[0].Message
	}
	return strings.TrimSpace(string(b))
}

// endpointLabel keeps metric cardinality down: path only, ids collapsed.
func endpointLabel(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return "unknown"
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) > 3 {
		parts = parts[len(parts)-3:]
	}
	// collapse the trailing resource id, keeping collection names
	if n := len(parts); n > 0 {
		switch parts[n-1] {
		case "venues", "bookings", "login", "register", "profiles":
		default:
			parts[n-1] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% crypto-rand jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
