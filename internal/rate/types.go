package rate

import (
	"net/http"
	"time"
)

// Window represents a provider rate-limit bucket.
type Window int

const (
	Minute Window = iota
	Hour
	Day
)

func (w Window) String() string {
	switch w {
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	case Day:
		return "day"
	default:
		return "unknown"
	}
}

func (w Window) Duration() time.Duration {
	switch w {
	case Hour:
		return time.Hour
	case Day:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

// Headers describes provider-specific rate limit headers.
type Headers struct {
	RetryAfter string
	ResetAfter string
	Remaining  string
}

// StandardHeaders returns the default header mapping used by most providers.
func StandardHeaders() Headers {
	return Headers{
		RetryAfter: "Retry-After",
		ResetAfter: "ratelimit-reset",
		Remaining:  "ratelimit-remaining",
	}
}

// Declaration defines a provider's rate limits and which requests they apply to.
type Declaration struct {
	provider string
	limits   map[Window]int
	cooldown time.Duration
	headers  Headers
	match    func(*http.Request) bool
}

// Provider creates a new declaration for a provider.
func Provider(name string) Declaration {
	return Declaration{provider: name}
}

func (d Declaration) ProviderName() string {
	return d.provider
}

func (d Declaration) MaxRequestsPer(window Window, limit int) Declaration {
	limits := make(map[Window]int, len(d.limits)+1)
	for w, l := range d.limits {
		limits[w] = l
	}
	limits[window] = limit
	d.limits = limits
	return d
}

// CooldownOn429 sets the pause applied when a 429 arrives without a usable
// Retry-After header.
func (d Declaration) CooldownOn429(pause time.Duration) Declaration {
	d.cooldown = pause
	return d
}

func (d Declaration) ReadHeaders(headers Headers) Declaration {
	d.headers = headers
	return d
}

// Only restricts the guard to requests accepted by match. Other requests
// pass through untouched.
func (d Declaration) Only(match func(*http.Request) bool) Declaration {
	d.match = match
	return d
}

func (d Declaration) Limits() map[Window]int {
	return d.limits
}

func (d Declaration) Headers() Headers {
	return d.headers
}

func (d Declaration) Cooldown() time.Duration {
	if d.cooldown <= 0 {
		return time.Minute
	}
	return d.cooldown
}

func (d Declaration) HasLimits() bool {
	return len(d.limits) > 0
}

func (d Declaration) applies(req *http.Request) bool {
	return d.match == nil || d.match(req)
}
