package app

import (
	"time"

	"github.com/rxportal/patientkit/internal/httpapi"
	"github.com/rxportal/patientkit/pkg/httpserver"
	"github.com/rxportal/patientkit/pkg/query"
	"github.com/rxportal/patientkit/pkg/session"
	"github.com/rxportal/patientkit/pkg/telemetry"
)

// Store drivers accepted in Config.StoreDriver.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverS3       = "s3"
)

// Config is the process configuration. Backend connection settings are read
// only for the selected StoreDriver, so their required variables do not have
// to be set otherwise.
type Config struct {
	Name      string `env:"APP_NAME" envDefault:"patientd"`
	Env       string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`

	StoreDriver    string `env:"STORE_DRIVER" envDefault:"memory"`
	StoreFile      string `env:"STORE_FILE" envDefault:"patientkit-store.json"`
	MigrateOnStart bool   `env:"STORE_MIGRATE" envDefault:"true"`

	TraceEnabled  bool `env:"TELEMETRY_TRACE_ENABLED" envDefault:"false"`
	SearchEnabled bool `env:"TELEMETRY_SEARCH_ENABLED" envDefault:"false"`

	HydrateOnStart bool          `env:"SESSION_HYDRATE_ON_START" envDefault:"true"`
	PatientDelay   time.Duration `env:"PATIENT_MOCK_DELAY" envDefault:"1s"`

	Session session.Config
	Query   query.Config
	HTTP    httpserver.Config
	API     httpapi.Config
	Search  telemetry.SearchSinkConfig
}
