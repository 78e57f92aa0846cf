// Package telemetry defines the observability sink the application reports
// breadcrumbs, errors and the current user to, plus the sink
// implementations used in production and tests.
//
// A Sink is fire-and-forget: its methods return nothing and callers never
// branch on their outcome. Implementations must not block for long and must
// be safe for concurrent use.
//
// # Implementations
//
//   - Nop discards everything.
//   - LogSink writes every call as a structured slog record.
//   - TraceSink turns breadcrumbs into OpenTelemetry span events and errors
//     into recorded span errors.
//   - SearchSink indexes events and errors as documents through a buffered
//     background worker (see pkg/opensearch for the indexer).
//   - Recorder keeps everything in memory for assertions and debug output.
//   - Multi fans out to several sinks.
//
// # Usage
//
//	sink := telemetry.Multi(
//	    telemetry.NewLogSink(log),
//	    telemetry.NewTraceSink(tp.Tracer("patientkit")),
//	)
//	sink.RecordEvent(ctx, telemetry.Event{
//	    Name:     "User login attempt",
//	    Category: "auth",
//	    Data:     map[string]any{"email": email},
//	})
//	sink.SetUser(ctx, &telemetry.User{ID: email, Email: email, Username: name})
package telemetry
