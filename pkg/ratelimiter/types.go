package ratelimiter

import "time"

// Config describes a token bucket. A zero Capacity disables limiting in
// callers that treat the limiter as optional.
type Config struct {
	Capacity       int           `env:"RATE_CAPACITY" envDefault:"10"`        // burst size
	RefillRate     int           `env:"RATE_REFILL" envDefault:"1"`           // tokens added per interval
	RefillInterval time.Duration `env:"RATE_REFILL_INTERVAL" envDefault:"6s"` // how often tokens are added
}

// DefaultConfig mirrors the envDefault tags.
func DefaultConfig() Config {
	return Config{Capacity: 10, RefillRate: 1, RefillInterval: 6 * time.Second}
}

// Enabled reports whether c describes a usable bucket.
func (c Config) Enabled() bool {
	return c.Capacity > 0 && c.RefillRate > 0 && c.RefillInterval > 0
}

// Result is the outcome of a single check.
type Result struct {
	Limit     int
	Remaining int // negative when the request was denied
	ResetAt   time.Time
	now       time.Time
}

// Allowed reports whether the request fits in the bucket.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter is how long until the next token, or 0 when allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(r.ResetAt.Sub(r.now), 0)
}
