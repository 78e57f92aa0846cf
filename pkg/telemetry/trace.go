package telemetry

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TraceSink reports to OpenTelemetry. Breadcrumbs become span events and
// errors become recorded span errors. When ctx carries a recording span the
// data is attached to it; otherwise a short-lived span is started for the call.
type TraceSink struct {
	tracer trace.Tracer
	user   atomic.Pointer[User]
}

// NewTraceSink creates a sink emitting through tracer.
func NewTraceSink(tracer trace.Tracer) *TraceSink {
	return &TraceSink{tracer: tracer}
}

func (s *TraceSink) RecordEvent(ctx context.Context, e Event) {
	e = normalize(e)

	attrs := []attribute.KeyValue{
		attribute.String("breadcrumb.category", e.Category),
		attribute.String("breadcrumb.level", string(e.Level)),
	}
	attrs = append(attrs, dataAttrs("breadcrumb.data.", e.Data)...)

	span, end := s.span(ctx, "breadcrumb "+e.Category)
	defer end()
	span.AddEvent(e.Name, trace.WithTimestamp(e.Timestamp), trace.WithAttributes(attrs...))
}

func (s *TraceSink) RecordError(ctx context.Context, err error, tags map[string]string, extra ...Context) {
	if err == nil {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(tags))
	for _, k := range sortedKeys(tags) {
		attrs = append(attrs, attribute.String("tag."+k, tags[k]))
	}
	for _, c := range extra {
		attrs = append(attrs, dataAttrs("context."+c.Name+".", c.Values)...)
	}

	span, end := s.span(ctx, "error")
	defer end()
	span.RecordError(err, trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, err.Error())
}

func (s *TraceSink) SetUser(_ context.Context, u *User) {
	s.user.Store(cloneUser(u))
}

// span returns the span to annotate and the function that finishes it.
func (s *TraceSink) span(ctx context.Context, name string) (trace.Span, func()) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		s.annotateUser(span)
		return span, func() {}
	}
	_, span := s.tracer.Start(ctx, name)
	s.annotateUser(span)
	return span, func() { span.End() }
}

func (s *TraceSink) annotateUser(span trace.Span) {
	if u := s.user.Load(); u != nil {
		span.SetAttributes(
			attribute.String("enduser.id", u.ID),
			attribute.String("enduser.name", u.Username),
		)
	}
}

func dataAttrs(prefix string, data map[string]any) []attribute.KeyValue {
	if len(data) == 0 {
		return nil
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		key := prefix + k
		switch v := data[k].(type) {
		case string:
			attrs = append(attrs, attribute.String(key, v))
		case bool:
			attrs = append(attrs, attribute.Bool(key, v))
		case int:
			attrs = append(attrs, attribute.Int(key, v))
		case int64:
			attrs = append(attrs, attribute.Int64(key, v))
		case float64:
			attrs = append(attrs, attribute.Float64(key, v))
		default:
			attrs = append(attrs, attribute.String(key, fmt.Sprint(v)))
		}
	}
	return attrs
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
