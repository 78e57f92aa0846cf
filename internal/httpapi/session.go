package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/rxportal/patientkit/pkg/logger"
	"github.com/rxportal/patientkit/pkg/session"
	"github.com/rxportal/patientkit/pkg/validator"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req loginRequest) validate() error {
	return validator.Apply(
		validator.ValidEmail("email", req.Email).WithMessage("Please enter a valid email address"),
		validator.MinLenString("password", req.Password, minPasswordLength).
			WithMessage("Password must be at least 6 characters"),
	)
}

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ViewOf(a.manager.State()))
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.validate(); err != nil {
		writeErr(w, err)
		return
	}

	if err := a.wait(r, a.cfg.LoginDelay); err != nil {
		a.log.DebugContext(r.Context(), "login abandoned by client", logger.UserEmail(req.Email))
		return
	}

	a.manager.Login(r.Context(), session.Identity{ID: req.Email, Name: a.cfg.DisplayName})

	if err := a.store.Delete(r.Context(), a.cfg.LoginFormKey); err != nil {
		a.log.WarnContext(r.Context(), "failed to clear remembered login form", logger.Error(err))
	}

	writeJSON(w, http.StatusOK, ViewOf(a.manager.State()))
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	a.manager.Logout(r.Context())
	a.cache.Clear()
	writeJSON(w, http.StatusOK, ViewOf(a.manager.State()))
}

// stream pushes the session as the "session" signal on connect and after
// every change until the client goes away.
func (a *API) stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sub := a.feed.Subscribe(ctx)
	defer sub.Close()

	sse := datastar.NewSSE(w, r)
	for {
		select {
		case <-ctx.Done():
			return
		case view, ok := <-sub.C():
			if !ok {
				return
			}
			data, err := json.Marshal(map[string]any{"session": view})
			if err != nil {
				a.log.ErrorContext(ctx, "failed to encode session signal", logger.Error(err))
				return
			}
			if err := sse.PatchSignals(data); err != nil {
				a.log.DebugContext(ctx, "session stream closed", logger.Error(err))
				return
			}
		}
	}
}
