package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/rxportal/patientkit/internal/httpapi"
	"github.com/rxportal/patientkit/pkg/config"
	"github.com/rxportal/patientkit/pkg/httpserver"
	"github.com/rxportal/patientkit/pkg/kvstore"
	"github.com/rxportal/patientkit/pkg/logger"
	"github.com/rxportal/patientkit/pkg/patient"
	"github.com/rxportal/patientkit/pkg/query"
	"github.com/rxportal/patientkit/pkg/session"
	"github.com/rxportal/patientkit/pkg/telemetry"
)

// App holds the wired components of a running process.
type App struct {
	Config  Config
	Log     *slog.Logger
	Store   kvstore.Store
	Sink    telemetry.Sink
	Manager *session.Manager
	Query   *query.Client

	checks  []httpserver.Check
	closers []func(context.Context) error
}

// Option configures New.
type Option func(*options)

type options struct {
	log      *slog.Logger
	logOut   io.Writer
	traceOut io.Writer
	loadOpts []config.Option
}

// WithLogger replaces the logger built from Config.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithLogOutput sets where the built logger writes. Defaults to stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOut = w }
}

// WithTraceOutput sets where exported spans are written. Defaults to stderr.
func WithTraceOutput(w io.Writer) Option {
	return func(o *options) { o.traceOut = w }
}

// WithLoadOptions passes options to the backend config loaders.
func WithLoadOptions(opts ...config.Option) Option {
	return func(o *options) { o.loadOpts = append(o.loadOpts, opts...) }
}

// LoadConfig reads Config from the environment and the given dotenv files.
func LoadConfig(envFiles ...string) (Config, error) {
	var cfg Config
	err := config.Load(&cfg, config.WithEnvFiles(envFiles...))
	return cfg, err
}

// New opens the store and sinks named in cfg and builds the session manager.
// The session is not hydrated; call Hydrate or Serve.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	o := &options{logOut: os.Stderr, traceOut: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}
	log := o.log
	if log == nil {
		log = NewLogger(cfg, o.logOut)
	}

	a := &App{Config: cfg, Log: log}

	be, err := openStore(ctx, cfg, log, o.loadOpts...)
	if err != nil {
		return nil, err
	}
	a.Store = be.store
	a.closers = append(a.closers, be.close)
	if be.check != nil {
		a.checks = append(a.checks, *be.check)
	}

	sk, err := openSinks(ctx, cfg, log, o.traceOut, o.loadOpts...)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.Sink = sk.sink
	a.checks = append(a.checks, sk.checks...)
	a.closers = append(a.closers, sk.shutdown)

	a.Manager = session.NewFromConfig(cfg.Session,
		session.WithStore(a.Store),
		session.WithSink(a.Sink),
		session.WithLogger(log),
	)
	a.Query = query.New(cfg.Query, query.WithLogger(log))
	a.closers = append(a.closers, func(context.Context) error { a.Query.Close(); return nil })

	log.DebugContext(ctx, "application wired",
		"store_driver", cfg.StoreDriver,
		"trace", cfg.TraceEnabled,
		"search", cfg.SearchEnabled,
	)
	return a, nil
}

// Hydrate restores the persisted session.
func (a *App) Hydrate(ctx context.Context) {
	a.Manager.Hydrate(ctx)
}

// Checks returns the readiness checks of the opened backends.
func (a *App) Checks() []httpserver.Check {
	return append([]httpserver.Check(nil), a.checks...)
}

// API builds the HTTP adapter over the manager.
func (a *App) API() *httpapi.API {
	return httpapi.New(a.Manager,
		httpapi.WithStore(a.Store),
		httpapi.WithQueryClient(a.Query),
		httpapi.WithSource(patient.NewMockSource(patient.WithDelay(a.Config.PatientDelay))),
		httpapi.WithSink(a.Sink),
		httpapi.WithLogger(a.Log),
		httpapi.WithConfig(a.Config.API),
		httpapi.WithChecks(a.checks...),
	)
}

// Serve hydrates the session when configured and serves the HTTP adapter
// until ctx is done.
func (a *App) Serve(ctx context.Context, opts ...httpserver.Option) error {
	if a.Config.HydrateOnStart {
		a.Hydrate(ctx)
	}

	api := a.API()
	defer api.Close()

	srv := httpserver.NewFromConfig(a.Config.HTTP, append([]httpserver.Option{httpserver.WithLogger(a.Log)}, opts...)...)
	return srv.Run(ctx, api.Router())
}

// Handler returns the HTTP handler without starting a server. The returned
// func releases the adapter.
func (a *App) Handler() (http.Handler, func()) {
	api := a.API()
	return api.Router(), api.Close
}

// Close releases every opened backend in reverse order.
func (a *App) Close(ctx context.Context) error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, a.closers[i](ctx))
	}
	a.closers = nil
	if err != nil {
		a.Log.ErrorContext(ctx, "failed to release resources", logger.Error(err))
	}
	return err
}
