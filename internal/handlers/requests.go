package handlers

import (
	"net/http"

	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/services/requests"
)

type requestStatusRequest struct {
	Status models.RequestStatus `json:"status" validate:"required"`
}

func (r *Router) listRequests(w http.ResponseWriter, req *http.Request) {
	list, err := r.svc.Requests.List(req.Context(), models.RequestStatus(req.URL.Query().Get("status")))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) createRequest(w http.ResponseWriter, req *http.Request) {
	var in requests.CreateInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	created, err := r.svc.Requests.Create(req.Context(), in, session(req).UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (r *Router) updateRequest(w http.ResponseWriter, req *http.Request) {
	var in requestStatusRequest
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	updated, err := r.svc.Requests.UpdateStatus(req.Context(), pathID(req), in.Status)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}
