package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rxportal/patientkit/pkg/kvstore"
	"github.com/rxportal/patientkit/pkg/logger"
	"github.com/rxportal/patientkit/pkg/telemetry"
)

const categoryAuth = "auth"

// Manager owns the session state and its persisted record.
type Manager struct {
	store  kvstore.Store
	sink   telemetry.Sink
	log    *slog.Logger
	config Config
	now    func() time.Time

	mu        sync.Mutex
	state     State
	phase     Phase
	observers []subscription
	nextSubID uint64
}

type subscription struct {
	id uint64
	fn Observer
}

// New creates a session manager with the given options.
// Without WithStore the record lives in memory only.
func New(opts ...Option) *Manager {
	m := &Manager{
		config: DefaultConfig(),
		phase:  PhaseUninitialized,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = kvstore.NewMemoryStore()
	}
	if m.sink == nil {
		m.sink = telemetry.Nop{}
	}
	if m.log == nil {
		m.log = logger.Discard()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.config.StorageKey == "" {
		m.config.StorageKey = DefaultStorageKey
	}

	m.log = m.log.With(logger.Component("session"))

	return m
}

// Hydrate loads the persisted identity. A missing, unreadable or corrupt
// record leaves the session unauthenticated. The session is hydrated when
// Hydrate returns, whatever the outcome. Calling it again re-reads the store.
func (m *Manager) Hydrate(ctx context.Context) {
	m.sink.RecordEvent(ctx, telemetry.Event{
		Name:     "Starting auth hydration",
		Category: categoryAuth,
	})

	id, err := m.load(ctx)
	if err != nil {
		m.log.WarnContext(ctx, "failed to load session record",
			logger.Key(m.config.StorageKey),
			logger.Error(err),
		)
		m.sink.RecordError(ctx, err, map[string]string{"feature": "auth_hydration"})
	}

	m.transition(ctx, eventHydrate, id, true)

	if err != nil {
		return
	}
	if id != nil {
		m.sink.SetUser(ctx, userOf(*id))
	}
	m.sink.RecordEvent(ctx, telemetry.Event{
		Name:     "Auth hydration complete",
		Category: categoryAuth,
		Data:     map[string]any{"has_user": id != nil},
	})
}

// Login makes id the signed-in identity, replacing any previous one, and
// persists it. The in-memory change stands even if persisting fails.
func (m *Manager) Login(ctx context.Context, id Identity) {
	m.sink.RecordEvent(ctx, telemetry.Event{
		Name:     "User login attempt",
		Category: categoryAuth,
		Data:     map[string]any{"email": id.ID},
	})

	m.transition(ctx, eventLogin, &id, false)
	m.sink.SetUser(ctx, userOf(id))

	if err := m.persist(ctx, id); err != nil {
		m.log.WarnContext(ctx, "failed to persist session record",
			logger.UserEmail(id.ID),
			logger.Error(err),
		)
		m.sink.RecordError(ctx, err,
			map[string]string{"feature": "user_login"},
			telemetry.Context{
				Name: "login_attempt",
				Values: map[string]any{
					"user_email": id.ID,
					"timestamp":  m.now().UTC().Format(time.RFC3339Nano),
				},
			},
		)
		return
	}

	m.sink.RecordEvent(ctx, telemetry.Event{
		Name:     "User login successful",
		Category: categoryAuth,
		Data:     map[string]any{"email": id.ID},
	})
}

// Logout clears the signed-in identity and erases the persisted record.
// Logging out while signed out still erases the record.
func (m *Manager) Logout(ctx context.Context) {
	data := map[string]any{}
	if email := m.State().Email(); email != "" {
		data["email"] = email
	}
	m.sink.RecordEvent(ctx, telemetry.Event{
		Name:     "User logout attempt",
		Category: categoryAuth,
		Data:     data,
	})

	m.transition(ctx, eventLogout, nil, false)
	m.sink.SetUser(ctx, nil)

	if err := m.store.Delete(context.WithoutCancel(ctx), m.config.StorageKey); err != nil {
		err = errors.Join(ErrStorePersist, err)
		m.log.WarnContext(ctx, "failed to erase session record", logger.Error(err))
		m.sink.RecordError(ctx, err, map[string]string{"feature": "user_logout"})
		return
	}

	m.sink.RecordEvent(ctx, telemetry.Event{
		Name:     "User logout successful",
		Category: categoryAuth,
	})
}

// State returns a snapshot of the current session.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Phase returns the current lifecycle phase.
func (m *Manager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// StorageKey returns the key of the persisted record.
func (m *Manager) StorageKey() string {
	return m.config.StorageKey
}

// Subscribe registers fn to be called after every state mutation, in
// subscription order. The returned function removes it and may be called
// more than once. Changes to the subscriber list made while observers are
// being notified apply from the next mutation.
func (m *Manager) Subscribe(fn Observer) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	m.mu.Lock()
	m.nextSubID++
	id := m.nextSubID
	m.observers = append(m.observers, subscription{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, s := range m.observers {
				if s.id == id {
					m.observers = append(m.observers[:i:i], m.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// transition applies ev to the in-memory state and notifies observers.
func (m *Manager) transition(ctx context.Context, ev event, id *Identity, hydrate bool) {
	m.mu.Lock()
	from := m.phase
	to, err := next(from, ev, id != nil)
	if err != nil {
		m.mu.Unlock()
		m.log.ErrorContext(ctx, "rejected session transition", logger.Error(err))
		return
	}

	var identity *Identity
	if id != nil {
		c := *id
		identity = &c
	}
	m.state.Identity = identity
	m.state.Authenticated = identity != nil
	if hydrate {
		m.state.Hydrated = true
	}
	m.phase = to

	snapshot := m.state.clone()
	observers := make([]Observer, len(m.observers))
	for i, s := range m.observers {
		observers[i] = s.fn
	}
	m.mu.Unlock()

	m.log.DebugContext(ctx, "session transition",
		logger.Event(string(ev)),
		slog.String("from", from.String()),
		logger.Phase(to.String()),
		logger.UserEmail(snapshot.Email()),
	)

	for _, fn := range observers {
		fn(snapshot.clone())
	}
}

func (m *Manager) load(ctx context.Context) (*Identity, error) {
	raw, err := m.store.Get(context.WithoutCancel(ctx), m.config.StorageKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrStoreRead, err)
	}
	id, err := ParseIdentity(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (m *Manager) persist(ctx context.Context, id Identity) error {
	raw, err := MarshalIdentity(id)
	if err != nil {
		return errors.Join(ErrStorePersist, err)
	}
	if err := m.store.Set(context.WithoutCancel(ctx), m.config.StorageKey, raw); err != nil {
		return errors.Join(ErrStorePersist, err)
	}
	return nil
}

func userOf(id Identity) *telemetry.User {
	return &telemetry.User{
		ID:       id.ID,
		Email:    id.ID,
		Username: id.Name,
	}
}
