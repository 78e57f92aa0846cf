package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/rxportal/patientkit/pkg/logger"
	"github.com/rxportal/patientkit/pkg/telemetry"
)

// recoverer turns a handler panic into a 500 response and reports it to the
// sink with the stack attached.
func (a *API) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rv := recover()
			if rv == nil {
				return
			}
			if rv == http.ErrAbortHandler {
				panic(rv)
			}

			err, ok := rv.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", rv)
			}
			err = errors.Join(ErrPanic, err)
			stack := string(debug.Stack())

			ctx := r.Context()
			a.log.ErrorContext(ctx, "handler panicked",
				logger.Error(err),
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(ctx),
			)
			a.sink.RecordError(ctx, err,
				map[string]string{"errorBoundary": "true"},
				telemetry.Context{
					Name: "errorInfo",
					Values: map[string]any{
						"stack":  stack,
						"path":   r.URL.Path,
						"method": r.Method,
					},
				},
			)

			if r.Header.Get("Connection") != "Upgrade" {
				writeError(w, http.StatusInternalServerError, "internal", http.StatusText(http.StatusInternalServerError))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
