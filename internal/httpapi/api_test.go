package httpapi_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxportal/patientkit/internal/httpapi"
	"github.com/rxportal/patientkit/pkg/kvstore"
	"github.com/rxportal/patientkit/pkg/patient"
	"github.com/rxportal/patientkit/pkg/query"
	"github.com/rxportal/patientkit/pkg/ratelimiter"
	"github.com/rxportal/patientkit/pkg/session"
	"github.com/rxportal/patientkit/pkg/telemetry"
)

type fixture struct {
	api     *httpapi.API
	manager *session.Manager
	store   *kvstore.MemoryStore
	sink    *telemetry.Recorder
	handler http.Handler
}

func setup(t *testing.T, mutate ...func(*httpapi.Config)) *fixture {
	t.Helper()
	return setupWithSource(t, patient.NewMockSource(patient.WithDelay(0)), mutate...)
}

func setupWithSource(t *testing.T, src patient.Source, mutate ...func(*httpapi.Config)) *fixture {
	t.Helper()
	store := kvstore.NewMemoryStore()
	sink := telemetry.NewRecorder()
	m := session.New(session.WithStore(store), session.WithSink(sink))

	cfg := httpapi.DefaultConfig()
	cfg.LoginDelay = 0
	cfg.EnableDebug = true
	for _, fn := range mutate {
		fn(&cfg)
	}

	qc := query.New(query.Config{Retries: 0, StaleTime: time.Minute})
	t.Cleanup(qc.Close)

	api := httpapi.New(m,
		httpapi.WithStore(store),
		httpapi.WithSink(sink),
		httpapi.WithQueryClient(qc),
		httpapi.WithSource(src),
		httpapi.WithConfig(cfg),
	)
	t.Cleanup(api.Close)

	return &fixture{api: api, manager: m, store: store, sink: sink, handler: api.Router()}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string              `json:"code"`
		Details map[string][]string `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) httpapi.SessionView {
	t.Helper()
	var v httpapi.SessionView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &v))
	return v
}

func TestGetSession(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeView(t, rec)
	assert.Equal(t, "uninitialized", v.Phase)
	assert.False(t, v.Hydrated)
	assert.Nil(t, v.User)

	f.manager.Hydrate(context.Background())
	v = decodeView(t, f.do(t, http.MethodGet, "/api/session", ""))
	assert.Equal(t, "unauthenticated", v.Phase)
	assert.True(t, v.Hydrated)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid input", func(t *testing.T) {
		f := setup(t)
		f.manager.Hydrate(ctx)

		rec := f.do(t, http.MethodPost, "/api/session/login", `{"email":"nope","password":"123"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		env := decode(t, rec)
		require.NotNil(t, env.Error)
		assert.Equal(t, "validation_failed", env.Error.Code)
		assert.Equal(t, []string{"Please enter a valid email address"}, env.Error.Details["email"])
		assert.Equal(t, []string{"Password must be at least 6 characters"}, env.Error.Details["password"])
		assert.False(t, f.manager.State().Authenticated)
	})

	t.Run("wrong content type", func(t *testing.T) {
		f := setup(t)
		req := httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader(`email=a`))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		f := setup(t)
		rec := f.do(t, http.MethodPost, "/api/session/login", `{"email":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("body too large", func(t *testing.T) {
		f := setup(t)
		body := `{"email":"` + strings.Repeat("a", 70<<10) + `@x.com","password":"secret1"}`
		rec := f.do(t, http.MethodPost, "/api/session/login", body)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "body_too_large", decode(t, rec).Error.Code)
		assert.False(t, f.manager.State().Authenticated)
	})

	t.Run("success", func(t *testing.T) {
		f := setup(t)
		f.manager.Hydrate(ctx)
		require.NoError(t, f.store.Set(ctx, "loginForm", `{"email":"jane@example.com"}`))

		rec := f.do(t, http.MethodPost, "/api/session/login", `{"email":" jane@example.com ","password":"secret1"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		v := decodeView(t, rec)
		assert.Equal(t, "authenticated", v.Phase)
		require.NotNil(t, v.User)
		assert.Equal(t, "jane@example.com", v.User.ID)
		assert.Equal(t, "John Doe", v.User.Name)

		raw, err := f.store.Get(ctx, "user")
		require.NoError(t, err)
		assert.JSONEq(t, `{"email":"jane@example.com","name":"John Doe"}`, raw)

		_, err = f.store.Get(ctx, "loginForm")
		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("display name from config", func(t *testing.T) {
		f := setup(t, func(c *httpapi.Config) { c.DisplayName = "Pat Example" })
		f.manager.Hydrate(ctx)

		v := decodeView(t, f.do(t, http.MethodPost, "/api/session/login", `{"email":"pat@example.com","password":"secret1"}`))
		require.NotNil(t, v.User)
		assert.Equal(t, "Pat Example", v.User.Name)
	})

	t.Run("client gives up during delay", func(t *testing.T) {
		f := setup(t, func(c *httpapi.Config) { c.LoginDelay = time.Minute })
		f.manager.Hydrate(ctx)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		req := httptest.NewRequest(http.MethodPost, "/api/session/login",
			strings.NewReader(`{"email":"pat@example.com","password":"secret1"}`)).WithContext(cctx)
		req.Header.Set("Content-Type", "application/json")
		f.handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.False(t, f.manager.State().Authenticated)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.manager.Hydrate(ctx)
	f.manager.Login(ctx, session.Identity{ID: "a@x.com", Name: "A"})

	rec := f.do(t, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/session/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeView(t, rec)
	assert.Equal(t, "unauthenticated", v.Phase)
	assert.Nil(t, v.User)

	_, err := f.store.Get(ctx, "user")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestLoginForm(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	rec := f.do(t, http.MethodGet, "/api/login-form", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":""}`, string(decode(t, rec).Data))

	rec = f.do(t, http.MethodPut, "/api/login-form", `{"email":"jane@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	raw, err := f.store.Get(ctx, "loginForm")
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"jane@example.com"}`, raw)
	assert.NotContains(t, raw, "hunter22")

	rec = f.do(t, http.MethodGet, "/api/login-form", "")
	assert.JSONEq(t, `{"email":"jane@example.com"}`, string(decode(t, rec).Data))

	rec = f.do(t, http.MethodDelete, "/api/login-form", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err = f.store.Get(ctx, "loginForm")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)

	require.NoError(t, f.store.Set(ctx, "loginForm", "{broken"))
	rec = f.do(t, http.MethodGet, "/api/login-form", "")
	assert.JSONEq(t, `{"email":""}`, string(decode(t, rec).Data))
}

func TestRequireSession(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	rec := f.do(t, http.MethodGet, "/api/dashboard", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "hydrating", decode(t, rec).Error.Code)

	f.manager.Hydrate(ctx)
	rec = f.do(t, http.MethodGet, "/api/shipments", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", decode(t, rec).Error.Code)
}

func TestPatientData(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.manager.Hydrate(ctx)
	f.manager.Login(ctx, session.Identity{ID: "a@x.com", Name: "A"})

	rec := f.do(t, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var d patient.Dashboard
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &d))
	assert.Equal(t, "John Doe", d.FullName)
	assert.Equal(t, "P-12345", d.PatientID)

	rec = f.do(t, http.MethodGet, "/api/shipments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Shipments []patient.Shipment `json:"shipments"`
		Summary   patient.Summary    `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &body))
	assert.Len(t, body.Shipments, 6)
	assert.Equal(t, patient.Summary{Total: 6, Delivered: 4, Shipped: 1, Processing: 1}, body.Summary)
}

func TestHealth(t *testing.T) {
	f := setup(t)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/readyz", "").Code)
}

func TestDebugStorage(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.manager.Hydrate(ctx)
	f.manager.Login(ctx, session.Identity{ID: "a@x.com", Name: "A"})

	rec := f.do(t, http.MethodGet, "/api/debug/storage", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var dump struct {
		User      *string `json:"user"`
		LoginForm *string `json:"loginForm"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &dump))
	require.NotNil(t, dump.User)
	assert.JSONEq(t, `{"email":"a@x.com","name":"A"}`, *dump.User)
	assert.Nil(t, dump.LoginForm)
	assert.Contains(t, f.sink.EventNames(), "Debug storage accessed")

	off := setup(t, func(c *httpapi.Config) { c.EnableDebug = false })
	assert.Equal(t, http.StatusNotFound, off.do(t, http.MethodGet, "/api/debug/storage", "").Code)
}

func TestStream(t *testing.T) {
	f := setup(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/session/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	waitFor := func(substr string) {
		t.Helper()
		for {
			select {
			case line, ok := <-lines:
				require.True(t, ok, "stream ended before %q", substr)
				if strings.Contains(line, substr) {
					return
				}
			case <-ctx.Done():
				require.FailNow(t, "timed out waiting for "+substr)
			}
		}
	}

	waitFor(`"phase":"uninitialized"`)

	f.manager.Hydrate(context.Background())
	waitFor(`"phase":"unauthenticated"`)

	f.manager.Login(context.Background(), session.Identity{ID: "a@x.com", Name: "A"})
	waitFor(`"email":"a@x.com"`)
}

func TestLogin_RateLimited(t *testing.T) {
	f := setup(t, func(c *httpapi.Config) {
		c.LoginLimit = ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Hour}
	})
	f.manager.Hydrate(context.Background())

	body := `{"email":"jane@example.com","password":"x"}`
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, http.MethodPost, "/api/session/login", body).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, http.MethodPost, "/api/session/login", body).Code)

	rec := f.do(t, http.MethodPost, "/api/session/login", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decode(t, rec).Error.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/session", "").Code)
}

func TestLogin_RateLimitDisabled(t *testing.T) {
	f := setup(t, func(c *httpapi.Config) { c.LoginLimit = ratelimiter.Config{} })
	for range 20 {
		assert.Equal(t, http.StatusUnprocessableEntity,
			f.do(t, http.MethodPost, "/api/session/login", `{"email":"x","password":"y"}`).Code)
	}
}

type panickingSource struct{}

func (panickingSource) Dashboard(context.Context) (patient.Dashboard, error) {
	panic("dashboard exploded")
}

func (panickingSource) Shipments(context.Context) ([]patient.Shipment, error) {
	return nil, nil
}

func TestPanicReported(t *testing.T) {
	ctx := context.Background()
	f := setupWithSource(t, panickingSource{})
	f.manager.Hydrate(ctx)
	f.manager.Login(ctx, session.Identity{ID: "a@x.com", Name: "A"})

	rec := f.do(t, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal", decode(t, rec).Error.Code)

	errs := f.sink.Errors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0].Err, httpapi.ErrPanic)
	assert.Contains(t, errs[0].Err.Error(), "dashboard exploded")
	assert.Equal(t, map[string]string{"errorBoundary": "true"}, errs[0].Tags)
	require.Len(t, errs[0].Contexts, 1)
	info := errs[0].Contexts[0]
	assert.Equal(t, "errorInfo", info.Name)
	assert.Equal(t, "/api/dashboard", info.Values["path"])
	assert.NotEmpty(t, info.Values["stack"])

	// The router keeps serving after a panic.
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/shipments", "").Code)
}

func TestDebugTelemetry(t *testing.T) {
	t.Run("message", func(t *testing.T) {
		f := setup(t)
		rec := f.do(t, http.MethodPost, "/api/debug/telemetry", `{"kind":"message"}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.Contains(t, f.sink.EventNames(), "Settings test message from Patient Dashboard")
		assert.Empty(t, f.sink.Errors())
	})

	t.Run("error", func(t *testing.T) {
		f := setup(t)
		rec := f.do(t, http.MethodPost, "/api/debug/telemetry", `{"kind":"error"}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
		errs := f.sink.Errors()
		require.Len(t, errs, 1)
		assert.Equal(t, "debug_telemetry", errs[0].Tags["feature"])
	})

	t.Run("crash", func(t *testing.T) {
		f := setup(t)
		rec := f.do(t, http.MethodPost, "/api/debug/telemetry", `{"kind":"crash"}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		errs := f.sink.Errors()
		require.Len(t, errs, 1)
		assert.Equal(t, "true", errs[0].Tags["errorBoundary"])
	})

	t.Run("unknown kind", func(t *testing.T) {
		f := setup(t)
		rec := f.do(t, http.MethodPost, "/api/debug/telemetry", `{"kind":"boom"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decode(t, rec).Error.Details, "kind")
	})

	t.Run("disabled", func(t *testing.T) {
		f := setup(t, func(c *httpapi.Config) { c.EnableDebug = false })
		rec := f.do(t, http.MethodPost, "/api/debug/telemetry", `{"kind":"message"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
