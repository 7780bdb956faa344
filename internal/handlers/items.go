package handlers

import (
	"net/http"

	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/services/inventory"
	"github.com/xelth-com/stockflow/internal/services/stock"
)

func (r *Router) listItems(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	items, err := r.svc.Inventory.List(req.Context(), inventory.ListFilter{
		Search:     q.Get("search"),
		Status:     models.ItemStatus(q.Get("status")),
		CategoryID: q.Get("categoryId"),
		Warehouse:  q.Get("warehouse"),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (r *Router) createItem(w http.ResponseWriter, req *http.Request) {
	var in inventory.CreateInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	item, err := r.svc.Inventory.Create(req.Context(), in, session(req).UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (r *Router) getItem(w http.ResponseWriter, req *http.Request) {
	item, err := r.svc.Inventory.Get(req.Context(), pathID(req))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (r *Router) updateItem(w http.ResponseWriter, req *http.Request) {
	var in inventory.UpdateInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	item, err := r.svc.Inventory.Update(req.Context(), pathID(req), in, session(req).UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (r *Router) deleteItem(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.Inventory.Delete(req.Context(), pathID(req)); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Item deleted successfully"})
}

// adjustStock applies a signed correction such as a return or damage write-off
func (r *Router) adjustStock(w http.ResponseWriter, req *http.Request) {
	var in stock.AdjustInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	item, err := r.svc.Stock.Adjust(req.Context(), pathID(req), in, session(req).UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// stockHistory lists history entries, or per-reason totals with ?type=stats
func (r *Router) stockHistory(w http.ResponseWriter, req *http.Request) {
	id := pathID(req)
	if req.URL.Query().Get("type") == "stats" {
		stats, err := r.svc.Stock.Stats(req.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, stats)
		return
	}

	history, err := r.svc.Stock.History(req.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// publicItem is the unauthenticated QR landing lookup
func (r *Router) publicItem(w http.ResponseWriter, req *http.Request) {
	item, err := r.svc.Inventory.Public(req.Context(), pathID(req))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}
