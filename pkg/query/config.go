package query

import "time"

// Config tunes caching and retries.
type Config struct {
	Retries      int           `env:"QUERY_RETRIES" envDefault:"2"`
	RetryBackoff time.Duration `env:"QUERY_RETRY_BACKOFF" envDefault:"200ms"`
	StaleTime    time.Duration `env:"QUERY_STALE_TIME" envDefault:"5m"`
	GCTime       time.Duration `env:"QUERY_GC_TIME" envDefault:"10m"`
}

// DefaultConfig returns the default cache settings.
func DefaultConfig() Config {
	return Config{
		Retries:      2,
		RetryBackoff: 200 * time.Millisecond,
		StaleTime:    5 * time.Minute,
		GCTime:       10 * time.Minute,
	}
}
