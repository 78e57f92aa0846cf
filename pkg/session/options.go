package session

import (
	"log/slog"
	"time"

	"github.com/rxportal/patientkit/pkg/kvstore"
	"github.com/rxportal/patientkit/pkg/telemetry"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithStore sets the durable store holding the session record
func WithStore(store kvstore.Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithSink sets the observability sink
func WithSink(sink telemetry.Sink) Option {
	return func(m *Manager) {
		m.sink = sink
	}
}

// WithLogger sets the logger used for transition and failure logs
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithConfig sets custom configuration
func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// WithStorageKey sets the well-known key of the persisted record
func WithStorageKey(key string) Option {
	return func(m *Manager) {
		m.config.StorageKey = key
	}
}

// WithClock overrides the time source used for error context timestamps
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}
