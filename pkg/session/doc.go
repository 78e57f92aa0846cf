// Package session owns the process-wide authentication state: who, if anyone,
// is signed in and whether the persisted session has been loaded yet.
//
// A Manager moves through three phases. It starts uninitialized, Hydrate
// loads the persisted identity from a kvstore.Store and settles it as
// authenticated or unauthenticated, and Login / Logout switch between those
// two for the rest of the process lifetime.
//
//	uninitialized ──hydrate──► unauthenticated ◄──logout── authenticated
//	                   └─────────────────────────────────────────►▲
//	                                  login ──────────────────────┘
//
// In-memory state is authoritative. Every operation updates memory first,
// notifies observers, and only then talks to the store. Storage failures are
// reported to the telemetry.Sink and never returned, so callers can treat
// Hydrate, Login and Logout as always succeeding. Store calls ignore the
// caller's cancellation, so an operation always finishes its round-trip.
//
// # Usage
//
//	store, _ := kvstore.NewFileStore("/var/lib/patientkit/state.json")
//	m := session.New(
//	    session.WithStore(store),
//	    session.WithSink(telemetry.NewLogSink(log)),
//	)
//
//	unsubscribe := m.Subscribe(func(s session.State) {
//	    log.Info("session changed", "authenticated", s.Authenticated)
//	})
//	defer unsubscribe()
//
//	m.Hydrate(ctx)
//	if !m.State().Authenticated {
//	    m.Login(ctx, session.Identity{ID: "a@x.com", Name: "A"})
//	}
//
// # Concurrency
//
// All methods are safe for concurrent use. Operations are not queued: when
// Login and Logout race, whichever in-memory update lands last wins.
//
// # Errors
//
// ErrStoreRead, ErrStoreParse and ErrStorePersist classify the failures
// reported to the sink. Use errors.Is on the reported error to tell them apart.
package session
