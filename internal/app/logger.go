package app

import (
	"io"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/rxportal/patientkit/pkg/logger"
)

// NewLogger builds the process logger. LOG_LEVEL and LOG_FORMAT override the
// per-environment defaults. Request ids set by the router are attached to
// records logged with the request context.
func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, cfg.Name),
		logger.WithOutput(w),
		logger.WithContextValue("request_id", middleware.RequestIDKey),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevelName(cfg.LogLevel))
	}
	if cfg.LogFormat != "" {
		opts = append(opts, logger.WithFormat(logger.Format(cfg.LogFormat)))
	}
	return logger.New(opts...)
}
