package session

// Config holds session configuration
type Config struct {
	// StorageKey is the store key holding the persisted identity (default: "user")
	StorageKey string `env:"SESSION_STORAGE_KEY" envDefault:"user"`
}

// DefaultStorageKey is the well-known key of the persisted record.
const DefaultStorageKey = "user"

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		StorageKey: DefaultStorageKey,
	}
}

// NewFromConfig creates a new Manager from the provided Config.
func NewFromConfig(cfg Config, opts ...Option) *Manager {
	configOpts := []Option{
		WithConfig(cfg),
	}

	configOpts = append(configOpts, opts...)

	return New(configOpts...)
}
