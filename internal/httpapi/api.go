package httpapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rxportal/patientkit/pkg/httpserver"
	"github.com/rxportal/patientkit/pkg/kvstore"
	"github.com/rxportal/patientkit/pkg/logger"
	"github.com/rxportal/patientkit/pkg/patient"
	"github.com/rxportal/patientkit/pkg/query"
	"github.com/rxportal/patientkit/pkg/ratelimiter"
	"github.com/rxportal/patientkit/pkg/session"
	"github.com/rxportal/patientkit/pkg/statefeed"
	"github.com/rxportal/patientkit/pkg/telemetry"
)

// SessionView is the session as rendered to clients.
type SessionView struct {
	Phase         string            `json:"phase"`
	Authenticated bool              `json:"authenticated"`
	Hydrated      bool              `json:"hydrated"`
	User          *session.Identity `json:"user"`
}

// ViewOf renders a session snapshot.
func ViewOf(s session.State) SessionView {
	return SessionView{
		Phase:         s.Phase().String(),
		Authenticated: s.Authenticated,
		Hydrated:      s.Hydrated,
		User:          s.Identity,
	}
}

// API exposes a session manager over HTTP.
type API struct {
	manager *session.Manager
	store   kvstore.Store
	cache   *query.Client
	source  patient.Source
	sink    telemetry.Sink
	log     *slog.Logger
	cfg     Config
	checks  []httpserver.Check
	wait    func(*http.Request, time.Duration) error

	feed        *statefeed.Feed[SessionView]
	unsubscribe func()
	limits      *ratelimiter.MemoryStore
	loginLimit  []func(http.Handler) http.Handler
	closeOnce   sync.Once
}

// Option configures an API.
type Option func(*API)

// WithStore sets the store holding the remembered login form. It should be
// the store the manager persists to.
func WithStore(s kvstore.Store) Option {
	return func(a *API) { a.store = s }
}

func WithQueryClient(c *query.Client) Option {
	return func(a *API) { a.cache = c }
}

func WithSource(s patient.Source) Option {
	return func(a *API) { a.source = s }
}

func WithSink(s telemetry.Sink) Option {
	return func(a *API) { a.sink = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *API) { a.log = l }
}

func WithConfig(cfg Config) Option {
	return func(a *API) { a.cfg = cfg }
}

// WithChecks adds readiness checks served on /readyz.
func WithChecks(checks ...httpserver.Check) Option {
	return func(a *API) { a.checks = append(a.checks, checks...) }
}

// New creates an API bound to manager and registers a session observer that
// feeds the event stream. Call Close to release it.
func New(manager *session.Manager, opts ...Option) *API {
	a := &API{
		manager: manager,
		cfg:     DefaultConfig(),
		wait:    sleep,
		feed:    statefeed.New[SessionView](),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.store == nil {
		a.store = kvstore.NewMemoryStore()
	}
	if a.cache == nil {
		a.cache = query.New(query.DefaultConfig())
	}
	if a.source == nil {
		a.source = patient.NewMockSource()
	}
	if a.sink == nil {
		a.sink = telemetry.Nop{}
	}
	if a.log == nil {
		a.log = logger.Discard()
	}
	if a.cfg.LoginFormKey == "" {
		a.cfg.LoginFormKey = DefaultLoginFormKey
	}
	if a.cfg.DisplayName == "" {
		a.cfg.DisplayName = DefaultDisplayName
	}
	a.log = a.log.With(logger.Component("httpapi"))

	if a.cfg.LoginLimit.Enabled() {
		a.limits = ratelimiter.NewMemoryStore()
		bucket, err := ratelimiter.NewBucket(a.limits, a.cfg.LoginLimit)
		if err != nil {
			a.log.Warn("login rate limit disabled", logger.Error(err))
		} else {
			a.loginLimit = append(a.loginLimit, ratelimiter.Middleware(bucket, ratelimiter.ByRemoteIP,
				ratelimiter.WithDeniedHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, http.StatusTooManyRequests, "rate_limited", "too many login attempts")
				})),
				ratelimiter.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
					writeErr(w, err)
				}),
			))
		}
	}

	a.feed.Publish(ViewOf(manager.State()))
	a.unsubscribe = manager.Subscribe(func(s session.State) {
		a.feed.Publish(ViewOf(s))
	})
	return a
}

// Close detaches from the manager and ends open event streams.
func (a *API) Close() {
	a.closeOnce.Do(func() {
		a.unsubscribe()
		a.feed.Close()
		if a.limits != nil {
			a.limits.Close()
		}
	})
}

// Router returns the HTTP handler.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.recoverer)
	r.Use(a.requestLogger)

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(a.log, a.cfg.ReadinessTimeout, a.checks...))

	r.Route("/api", func(api chi.Router) {
		api.Route("/session", func(s chi.Router) {
			s.Get("/", a.getSession)
			s.With(a.loginLimit...).Post("/login", a.login)
			s.Post("/logout", a.logout)
			s.Get("/stream", a.stream)
		})

		api.Route("/login-form", func(f chi.Router) {
			f.Get("/", a.getLoginForm)
			f.Put("/", a.putLoginForm)
			f.Delete("/", a.deleteLoginForm)
		})

		api.Group(func(p chi.Router) {
			p.Use(a.RequireSession)
			p.Get("/dashboard", a.getDashboard)
			p.Get("/shipments", a.getShipments)
		})

		if a.cfg.EnableDebug {
			api.Get("/debug/storage", a.debugStorage)
			api.Post("/debug/telemetry", a.debugTelemetry)
		}
	})

	return r
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.log.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			logger.Duration(time.Since(start)),
		)
	})
}

func sleep(r *http.Request, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-r.Context().Done():
		return r.Context().Err()
	}
}
