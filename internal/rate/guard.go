package rate

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitError is returned when calls are blocked.
type RateLimitError struct {
	Provider string
	Reason   string
	RetryAt  time.Time
}

func (e RateLimitError) Error() string {
	if e.RetryAt.IsZero() {
		return fmt.Sprintf("%s rate limited: %s", e.Provider, e.Reason)
	}
	return fmt.Sprintf("%s rate limited: %s (retry at %s)", e.Provider, e.Reason, e.RetryAt.UTC().Format(time.RFC3339))
}

type Decision struct {
	Allowed bool
	Reason  string
	RetryAt time.Time
}

type bucket struct {
	capacity int
	tokens   float64
	last     time.Time
}

// Guard enforces rate limits for a provider.
type Guard struct {
	decl Declaration
	now  func() time.Time

	mu sync.Mutex
	// guarded by mu
	buckets  map[Window]*bucket
	cooldown time.Time
}

// WrapHTTP wraps an http.Client with rate-limit enforcement.
func WrapHTTP(decl Declaration, base *http.Client) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	client := *base
	transport := client.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	client.Transport = &roundTripper{
		base:  transport,
		guard: NewGuard(decl),
	}
	return &client
}

func NewGuard(decl Declaration) *Guard {
	g := &Guard{
		decl:    decl,
		now:     time.Now,
		buckets: make(map[Window]*bucket),
	}
	now := g.now()
	for window, limit := range decl.Limits() {
		g.buckets[window] = &bucket{
			capacity: limit,
			tokens:   float64(limit),
			last:     now,
		}
	}
	return g
}

type roundTripper struct {
	base  http.RoundTripper
	guard *Guard
}

func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if !rt.guard.decl.applies(req) {
		return rt.base.RoundTrip(req)
	}

	decision := rt.guard.ShouldCall()
	if !decision.Allowed {
		blockedTotal.WithLabelValues(rt.guard.decl.ProviderName(), decision.Reason).Inc()
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, RateLimitError{
			Provider: rt.guard.decl.ProviderName(),
			Reason:   decision.Reason,
			RetryAt:  decision.RetryAt,
		}
	}

	resp, err := rt.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}
	rt.guard.RecordResponse(resp.StatusCode, resp.Header)
	return resp, nil
}

func (g *Guard) ShouldCall() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if !g.cooldown.IsZero() && now.Before(g.cooldown) {
		return Decision{Allowed: false, Reason: "cooldown", RetryAt: g.cooldown}
	}

	for window, b := range g.buckets {
		if b.capacity <= 0 {
			return Decision{Allowed: false, Reason: "disabled"}
		}
		if !consumeToken(b, window.Duration(), now) {
			retryAt := b.last.Add(window.Duration() / time.Duration(b.capacity))
			return Decision{Allowed: false, Reason: "budget", RetryAt: retryAt}
		}
	}

	return Decision{Allowed: true}
}

func (g *Guard) RecordResponse(status int, headers http.Header) {
	g.mu.Lock()
	defer g.mu.Unlock()

	provider := g.decl.ProviderName()
	lastStatusGauge.WithLabelValues(provider).Set(float64(status))

	// Only a rejection or an exhausted budget starts a cooldown.
	cfg := g.decl.Headers()
	if status != http.StatusTooManyRequests && !budgetExhausted(headers, cfg.Remaining) {
		return
	}

	now := g.now()
	wait := headerSeconds(headers, cfg.RetryAfter)
	if wait <= 0 {
		wait = headerSeconds(headers, cfg.ResetAfter)
	}
	if wait <= 0 && status == http.StatusTooManyRequests {
		wait = g.decl.Cooldown()
	}
	if wait > 0 {
		g.cooldown = now.Add(wait)
		retryAfterGauge.WithLabelValues(provider).Set(wait.Seconds())
	}
}

func headerSeconds(h http.Header, key string) time.Duration {
	if key == "" {
		return 0
	}
	val := strings.TrimSpace(h.Get(key))
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func budgetExhausted(h http.Header, key string) bool {
	if key == "" {
		return false
	}
	val := strings.TrimSpace(h.Get(key))
	if val == "" {
		return false
	}
	remaining, err := strconv.Atoi(val)
	return err == nil && remaining <= 0
}

func consumeToken(b *bucket, window time.Duration, now time.Time) bool {
	if b.last.IsZero() {
		b.last = now
	}
	elapsed := now.Sub(b.last).Seconds()
	refillRate := float64(b.capacity) / window.Seconds()
	b.tokens = minFloat(float64(b.capacity), b.tokens+elapsed*refillRate)
	b.last = now
	if b.tokens >= 1 {
		b.tokens -= 1
		return true
	}
	return false
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
