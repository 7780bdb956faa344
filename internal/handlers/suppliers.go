package handlers

import (
	"net/http"

	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/services/suppliers"
)

func (r *Router) listSuppliers(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	page, err := r.svc.Suppliers.List(req.Context(), suppliers.ListFilter{
		Search:     q.Get("search"),
		Status:     models.SupplierStatus(q.Get("status")),
		CategoryID: q.Get("categoryId"),
		RiskLevel:  models.RiskLevel(q.Get("riskLevel")),
		Page:       queryInt(req, "page", 1),
		Limit:      queryInt(req, "limit", 10),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (r *Router) createSupplier(w http.ResponseWriter, req *http.Request) {
	var in suppliers.CreateInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	supplier, err := r.svc.Suppliers.Create(req.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, supplier)
}

func (r *Router) getSupplier(w http.ResponseWriter, req *http.Request) {
	supplier, err := r.svc.Suppliers.Get(req.Context(), pathID(req))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, supplier)
}

func (r *Router) updateSupplier(w http.ResponseWriter, req *http.Request) {
	var in suppliers.UpdateInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	supplier, err := r.svc.Suppliers.Update(req.Context(), pathID(req), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, supplier)
}

func (r *Router) addSupplierDocument(w http.ResponseWriter, req *http.Request) {
	var in suppliers.DocumentInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	doc, err := r.svc.Suppliers.AddDocument(req.Context(), pathID(req), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, doc)
}

func (r *Router) addSupplierCommunication(w http.ResponseWriter, req *http.Request) {
	var in suppliers.CommunicationInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	comm, err := r.svc.Suppliers.AddCommunication(req.Context(), pathID(req), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, comm)
}

func (r *Router) upsertSupplierQualification(w http.ResponseWriter, req *http.Request) {
	var in suppliers.QualificationInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	q, err := r.svc.Suppliers.UpsertQualification(req.Context(), pathID(req), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (r *Router) supplierMetrics(w http.ResponseWriter, req *http.Request) {
	m, err := r.svc.Suppliers.Metrics(req.Context(), pathID(req))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}
