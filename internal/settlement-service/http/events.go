package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/bet-settlement-core/internal/settlement-service/dto"
	"github.com/radieske/bet-settlement-core/internal/settlement-service/service"
)

func (a *API) createEvent(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEventRequest
	if !decode(w, r, &req) {
		return
	}
	ev, err := a.Svc.CreateEvent(r.Context(), req.Input())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (a *API) getEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := a.Svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (a *API) updateEvent(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateEventRequest
	if !decode(w, r, &req) {
		return
	}
	patch, err := req.Patch()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Field: "result"})
		return
	}
	ev, err := a.Svc.UpdateEvent(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (a *API) destroyEvent(w http.ResponseWriter, r *http.Request) {
	if err := a.Svc.DestroyEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listEventBets(w http.ResponseWriter, r *http.Request) {
	bets, err := a.Svc.ListEventBets(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bets)
}

// reconcileEvent reexecuta a liquidação; falha parcial responde 500 com os ids pendentes
func (a *API) reconcileEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := a.Svc.ReconcileEvent(r.Context(), id)

	var perr *service.PartialSettlementError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, dto.ReconcileResponse{EventID: id, FailedBetIDs: []string{}})
	case errors.As(err, &perr):
		writeJSON(w, http.StatusInternalServerError, dto.ReconcileResponse{
			EventID:      id,
			FailedBetIDs: perr.FailedBetIDs,
			Error:        "partial settlement",
		})
	default:
		a.writeError(w, r, err)
	}
}
