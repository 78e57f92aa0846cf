package telemetry

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/rxportal/patientkit/pkg/logger"
)

// LogSink writes telemetry to a slog.Logger.
type LogSink struct {
	log  *slog.Logger
	user atomic.Pointer[User]
}

// NewLogSink creates a sink logging through log. A nil logger uses slog.Default().
func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = slog.Default()
	}
	return &LogSink{log: log.With(logger.Component("telemetry"))}
}

func (s *LogSink) RecordEvent(ctx context.Context, e Event) {
	e = normalize(e)

	attrs := []slog.Attr{
		logger.Event(e.Name),
		logger.Category(e.Category),
	}
	if len(e.Data) > 0 {
		attrs = append(attrs, slog.Any("data", e.Data))
	}
	attrs = append(attrs, s.userAttr())

	s.log.LogAttrs(ctx, levelOf(e.Level), "breadcrumb", attrs...)
}

func (s *LogSink) RecordError(ctx context.Context, err error, tags map[string]string, extra ...Context) {
	if err == nil {
		return
	}

	attrs := []slog.Attr{logger.Error(err)}
	if len(tags) > 0 {
		attrs = append(attrs, slog.Any("tags", tags))
	}
	for _, c := range extra {
		attrs = append(attrs, slog.Any(c.Name, c.Values))
	}
	attrs = append(attrs, s.userAttr())

	s.log.LogAttrs(ctx, slog.LevelError, "captured error", attrs...)
}

func (s *LogSink) SetUser(ctx context.Context, u *User) {
	s.user.Store(cloneUser(u))
	if u == nil {
		s.log.DebugContext(ctx, "telemetry user cleared")
		return
	}
	s.log.DebugContext(ctx, "telemetry user set", logger.UserEmail(u.ID))
}

func (s *LogSink) userAttr() slog.Attr {
	if u := s.user.Load(); u != nil {
		return logger.UserEmail(u.ID)
	}
	return slog.Attr{}
}

func levelOf(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
