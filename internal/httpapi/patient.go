package httpapi

import (
	"context"
	"net/http"

	"github.com/rxportal/patientkit/pkg/logger"
	"github.com/rxportal/patientkit/pkg/patient"
	"github.com/rxportal/patientkit/pkg/query"
)

type shipmentsResponse struct {
	Shipments []patient.Shipment `json:"shipments"`
	Summary   patient.Summary    `json:"summary"`
}

// RequireSession rejects requests until the session is hydrated and
// authenticated.
func (a *API) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := a.manager.State()
		switch {
		case !s.Hydrated:
			writeErr(w, ErrHydrating)
		case !s.Authenticated:
			writeErr(w, ErrUnauthenticated)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (a *API) getDashboard(w http.ResponseWriter, r *http.Request) {
	key := "dashboard:" + a.manager.State().Email()
	d, err := query.Fetch(r.Context(), a.cache, key, a.source.Dashboard)
	if err != nil {
		a.log.ErrorContext(r.Context(), "failed to load dashboard", logger.Error(err))
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) getShipments(w http.ResponseWriter, r *http.Request) {
	key := "shipments:" + a.manager.State().Email()
	list, err := query.Fetch(r.Context(), a.cache, key, func(ctx context.Context) ([]patient.Shipment, error) {
		return a.source.Shipments(ctx)
	})
	if err != nil {
		a.log.ErrorContext(r.Context(), "failed to load shipments", logger.Error(err))
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shipmentsResponse{Shipments: list, Summary: patient.Summarize(list)})
}
