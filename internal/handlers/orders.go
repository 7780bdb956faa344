package handlers

import (
	"net/http"

	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/services/orders"
)

type orderStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

func (r *Router) listOrders(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	list, err := r.svc.Orders.List(req.Context(), orders.ListFilter{
		Status: models.OrderStatus(q.Get("status")),
		UserID: q.Get("userId"),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// createOrder reserves stock for every line or fails without side effects
func (r *Router) createOrder(w http.ResponseWriter, req *http.Request) {
	var in orders.CreateInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	order, err := r.svc.Orders.Create(req.Context(), in, session(req).UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (r *Router) orderAnalytics(w http.ResponseWriter, req *http.Request) {
	analytics, err := r.svc.Orders.Analytics(req.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, analytics)
}

func (r *Router) getOrder(w http.ResponseWriter, req *http.Request) {
	order, err := r.svc.Orders.Get(req.Context(), pathID(req))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (r *Router) updateOrder(w http.ResponseWriter, req *http.Request) {
	var in orderStatusRequest
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	order, err := r.svc.Orders.UpdateStatus(req.Context(), pathID(req), in.Status, session(req).UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (r *Router) deleteOrder(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.Orders.Delete(req.Context(), pathID(req)); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Order deleted successfully"})
}
