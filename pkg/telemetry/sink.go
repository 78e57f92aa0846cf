package telemetry

import (
	"context"
	"maps"
	"time"
)

// Level is the severity of a breadcrumb.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Event is a breadcrumb: a named, categorised record of something that happened.
type Event struct {
	Name      string         `json:"name"`
	Category  string         `json:"category"`
	Level     Level          `json:"level"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// User identifies the person the process currently acts for.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

// Context is a named bag of values attached to a reported error.
type Context struct {
	Name   string         `json:"name"`
	Values map[string]any `json:"values,omitempty"`
}

// Sink receives observability data. All methods are fire-and-forget.
type Sink interface {
	// RecordEvent records a breadcrumb.
	RecordEvent(ctx context.Context, e Event)

	// RecordError reports err with optional tags and structured contexts.
	RecordError(ctx context.Context, err error, tags map[string]string, extra ...Context)

	// SetUser sets the process-wide user context. Nil clears it.
	SetUser(ctx context.Context, u *User)
}

// normalize fills defaults so every sink sees the same shape.
func normalize(e Event) Event {
	if e.Level == "" {
		e.Level = LevelInfo
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.Data != nil {
		e.Data = maps.Clone(e.Data)
	}
	return e
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Nop is a Sink that discards everything.
type Nop struct{}

func (Nop) RecordEvent(context.Context, Event)                               {}
func (Nop) RecordError(context.Context, error, map[string]string, ...Context) {}
func (Nop) SetUser(context.Context, *User)                                   {}

type multi []Sink

// Multi returns a Sink that forwards every call to each non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) RecordEvent(ctx context.Context, e Event) {
	e = normalize(e)
	for _, s := range m {
		s.RecordEvent(ctx, e)
	}
}

func (m multi) RecordError(ctx context.Context, err error, tags map[string]string, extra ...Context) {
	if err == nil {
		return
	}
	for _, s := range m {
		s.RecordError(ctx, err, tags, extra...)
	}
}

func (m multi) SetUser(ctx context.Context, u *User) {
	for _, s := range m {
		s.SetUser(ctx, u)
	}
}
