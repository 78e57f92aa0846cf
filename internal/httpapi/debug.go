package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rxportal/patientkit/pkg/kvstore"
	"github.com/rxportal/patientkit/pkg/telemetry"
	"github.com/rxportal/patientkit/pkg/validator"
)

const (
	testKindMessage = "message"
	testKindError   = "error"
	testKindCrash   = "crash"
)

var testKinds = []string{testKindMessage, testKindError, testKindCrash}

type telemetryTestRequest struct {
	Kind string `json:"kind"`
}

type storageDump struct {
	User      *string `json:"user"`
	LoginForm *string `json:"loginForm"`
}

// debugStorage returns the raw records the session and login form keep in
// the store.
func (a *API) debugStorage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a.sink.RecordEvent(ctx, telemetry.Event{
		Name:     "Debug storage accessed",
		Category: "debug",
		Level:    telemetry.LevelInfo,
	})

	var dump storageDump
	for key, dst := range map[string]**string{
		a.manager.StorageKey(): &dump.User,
		a.cfg.LoginFormKey:     &dump.LoginForm,
	} {
		raw, err := a.store.Get(ctx, key)
		if errors.Is(err, kvstore.ErrNotFound) {
			continue
		}
		if err != nil {
			a.sink.RecordError(ctx, err, map[string]string{"feature": "debug_storage"})
			writeErr(w, err)
			return
		}
		*dst = &raw
	}
	writeJSON(w, http.StatusOK, dump)
}

// debugTelemetry sends a test message or error through the sink. A crash
// panics and is reported by the recoverer.
func (a *API) debugTelemetry(w http.ResponseWriter, r *http.Request) {
	var req telemetryTestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	req.Kind = strings.ToLower(strings.TrimSpace(req.Kind))
	if err := validator.Apply(validator.InListString("kind", req.Kind, testKinds)); err != nil {
		writeErr(w, err)
		return
	}

	ctx := r.Context()
	switch req.Kind {
	case testKindMessage:
		a.sink.RecordEvent(ctx, telemetry.Event{
			Name:     "Settings test message from Patient Dashboard",
			Category: "debug",
			Level:    telemetry.LevelInfo,
		})
	case testKindError:
		a.sink.RecordError(ctx, errors.New("settings test error from Patient Dashboard"),
			map[string]string{"feature": "debug_telemetry"})
	case testKindCrash:
		panic("intentional crash for testing")
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"recorded": req.Kind})
}
