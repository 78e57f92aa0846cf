package httpapi

import (
	"time"

	"github.com/rxportal/patientkit/pkg/ratelimiter"
)

// Config controls the presentation adapter.
type Config struct {
	// LoginDelay simulates authentication latency before the session is
	// signed in.
	LoginDelay time.Duration `env:"API_LOGIN_DELAY" envDefault:"1500ms"`
	// DisplayName is the name given to every signed-in identity; credentials
	// are not verified against a backend.
	DisplayName string `env:"API_DISPLAY_NAME" envDefault:"John Doe"`
	// LoginFormKey is the store key of the remembered login form.
	LoginFormKey     string        `env:"API_LOGIN_FORM_KEY" envDefault:"loginForm"`
	ReadinessTimeout time.Duration `env:"API_READINESS_TIMEOUT" envDefault:"2s"`
	// EnableDebug mounts GET /api/debug/storage.
	EnableDebug bool `env:"API_ENABLE_DEBUG" envDefault:"false"`
	// LoginLimit throttles login attempts per client address. A zero
	// Capacity disables it.
	LoginLimit ratelimiter.Config `envPrefix:"API_LOGIN_"`
}

const (
	DefaultLoginDelay   = 1500 * time.Millisecond
	DefaultDisplayName  = "John Doe"
	DefaultLoginFormKey = "loginForm"
	minPasswordLength   = 6
)

// DefaultConfig mirrors the envDefault tags.
func DefaultConfig() Config {
	return Config{
		LoginDelay:       DefaultLoginDelay,
		DisplayName:      DefaultDisplayName,
		LoginFormKey:     DefaultLoginFormKey,
		ReadinessTimeout: 2 * time.Second,
		LoginLimit:       ratelimiter.DefaultConfig(),
	}
}
