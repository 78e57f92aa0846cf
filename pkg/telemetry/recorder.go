package telemetry

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// ErrorRecord is an error captured by a Recorder.
type ErrorRecord struct {
	Err      error
	Tags     map[string]string
	Contexts []Context
}

// Recorder is an in-memory Sink. It keeps every call for later inspection.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	errors []ErrorRecord
	user   *User
	users  []*User
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) RecordEvent(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, normalize(e))
}

func (r *Recorder) RecordError(_ context.Context, err error, tags map[string]string, extra ...Context) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, ErrorRecord{
		Err:      err,
		Tags:     maps.Clone(tags),
		Contexts: slices.Clone(extra),
	})
}

func (r *Recorder) SetUser(_ context.Context, u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = cloneUser(u)
	r.users = append(r.users, cloneUser(u))
}

// Events returns a copy of the recorded breadcrumbs.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// EventNames returns the names of the recorded breadcrumbs in order.
func (r *Recorder) EventNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name
	}
	return names
}

// Errors returns a copy of the recorded errors.
func (r *Recorder) Errors() []ErrorRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.errors)
}

// User returns the current user context, or nil.
func (r *Recorder) User() *User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUser(r.user)
}

// UserHistory returns every SetUser argument in call order. Nil entries are clears.
func (r *Recorder) UserHistory() []*User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.users)
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.errors = nil
	r.user = nil
	r.users = nil
}
