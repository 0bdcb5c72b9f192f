package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/bet-settlement-core/internal/settlement-service/dto"
)

func (a *API) createBet(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBetRequest
	if !decode(w, r, &req) {
		return
	}
	b, err := a.Svc.CreateBet(r.Context(), req.Input())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (a *API) getBet(w http.ResponseWriter, r *http.Request) {
	b, err := a.Svc.GetBet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (a *API) updateBet(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateBetRequest
	if !decode(w, r, &req) {
		return
	}
	b, err := a.Svc.UpdateBet(r.Context(), chi.URLParam(r, "id"), req.Patch())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (a *API) destroyBet(w http.ResponseWriter, r *http.Request) {
	if err := a.Svc.DestroyBet(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
