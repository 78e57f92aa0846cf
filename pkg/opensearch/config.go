package opensearch

import "time"

// Config holds cluster connection settings. Addresses is a comma separated
// list in the environment.
type Config struct {
	Addresses      []string      `env:"OPENSEARCH_ADDRESSES,required" envSeparator:","`
	Username       string        `env:"OPENSEARCH_USERNAME"`
	Password       string        `env:"OPENSEARCH_PASSWORD"`
	MaxRetries     int           `env:"OPENSEARCH_MAX_RETRIES" envDefault:"3"`
	DisableRetry   bool          `env:"OPENSEARCH_DISABLE_RETRY" envDefault:"false"`
	ConnectTimeout time.Duration `env:"OPENSEARCH_CONNECT_TIMEOUT" envDefault:"10s"` // bounds the startup healthcheck
}
