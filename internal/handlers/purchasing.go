package handlers

import (
	"net/http"
	"time"

	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/services/purchasing"
	"github.com/xelth-com/stockflow/internal/utils"
)

type poStatusRequest struct {
	Status models.POStatus `json:"status" validate:"required"`
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates
func parseDate(req *http.Request, key string) (*time.Time, error) {
	v := req.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, utils.ValidationError(key + " must be a date")
}

func (r *Router) listPurchaseOrders(w http.ResponseWriter, req *http.Request) {
	from, err := parseDate(req, "from")
	if err != nil {
		respondError(w, err)
		return
	}
	to, err := parseDate(req, "to")
	if err != nil {
		respondError(w, err)
		return
	}

	q := req.URL.Query()
	list, err := r.svc.Purchasing.ListPurchaseOrders(req.Context(), purchasing.POFilter{
		Status:     models.POStatus(q.Get("status")),
		SupplierID: q.Get("supplierId"),
		From:       from,
		To:         to,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) createPurchaseOrder(w http.ResponseWriter, req *http.Request) {
	var in purchasing.CreatePOInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	po, err := r.svc.Purchasing.CreatePurchaseOrder(req.Context(), in, session(req).UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, po)
}

func (r *Router) getPurchaseOrder(w http.ResponseWriter, req *http.Request) {
	po, err := r.svc.Purchasing.GetPurchaseOrder(req.Context(), pathID(req))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, po)
}

func (r *Router) updatePurchaseOrder(w http.ResponseWriter, req *http.Request) {
	var in poStatusRequest
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	po, err := r.svc.Purchasing.UpdatePurchaseOrderStatus(req.Context(), pathID(req), in.Status, session(req).UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, po)
}

func (r *Router) listGoodsReceipts(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	list, err := r.svc.Purchasing.ListGoodsReceipts(req.Context(), purchasing.ReceiptFilter{
		PurchaseOrderID: q.Get("purchaseOrderId"),
		Status:          models.ReceiptStatus(q.Get("status")),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) createGoodsReceipt(w http.ResponseWriter, req *http.Request) {
	var in purchasing.CreateReceiptInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	receipt, err := r.svc.Purchasing.CreateGoodsReceipt(req.Context(), in, session(req).UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

func (r *Router) getGoodsReceipt(w http.ResponseWriter, req *http.Request) {
	receipt, err := r.svc.Purchasing.GetGoodsReceipt(req.Context(), pathID(req))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

// updateGoodsReceipt changes status and/or notes. Completing a receipt
// restocks its items.
func (r *Router) updateGoodsReceipt(w http.ResponseWriter, req *http.Request) {
	var in purchasing.UpdateReceiptInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	receipt, err := r.svc.Purchasing.UpdateGoodsReceipt(req.Context(), pathID(req), in, session(req).UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

func (r *Router) deleteGoodsReceipt(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.Purchasing.DeleteGoodsReceipt(req.Context(), pathID(req)); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Goods receipt deleted successfully"})
}
