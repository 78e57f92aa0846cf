package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rxportal/patientkit/pkg/kvstore"
	"github.com/rxportal/patientkit/pkg/logger"
)

// loginForm is the remembered part of the login form. The password is never
// stored.
type loginForm struct {
	Email string `json:"email"`
}

func (a *API) getLoginForm(w http.ResponseWriter, r *http.Request) {
	raw, err := a.store.Get(r.Context(), a.cfg.LoginFormKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			a.log.WarnContext(r.Context(), "failed to read remembered login form", logger.Error(err))
		}
		writeJSON(w, http.StatusOK, loginForm{})
		return
	}

	var form loginForm
	if err := json.Unmarshal([]byte(raw), &form); err != nil {
		a.log.WarnContext(r.Context(), "discarding malformed login form", logger.Error(err))
		form = loginForm{}
	}
	writeJSON(w, http.StatusOK, form)
}

func (a *API) putLoginForm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password,omitempty"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}

	form := loginForm{Email: strings.TrimSpace(req.Email)}
	if form.Email == "" {
		a.deleteLoginForm(w, r)
		return
	}

	raw, err := json.Marshal(form)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := a.store.Set(r.Context(), a.cfg.LoginFormKey, string(raw)); err != nil {
		a.log.WarnContext(r.Context(), "failed to remember login form", logger.Error(err))
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (a *API) deleteLoginForm(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Delete(r.Context(), a.cfg.LoginFormKey); err != nil {
		a.log.WarnContext(r.Context(), "failed to clear remembered login form", logger.Error(err))
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
