// Package logger builds *slog.Logger instances configured through functional
// options and provides attribute helpers that keep key names consistent.
//
// New picks slog's text or JSON handler, applies static attributes and wraps
// the result in LogHandlerDecorator, which runs registered ContextExtractor
// callbacks on every handled record. That is how request-scoped values reach
// log lines without threading loggers through every call.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "patientd"),
//	    logger.WithContextValue("request_id", middleware.RequestIDKey),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "user signed in",
//	    logger.UserEmail(id.ID),
//	    logger.Phase("authenticated"),
//	)
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally. Discard returns a logger that drops everything and
// is the default for library components constructed without a logger.
package logger
