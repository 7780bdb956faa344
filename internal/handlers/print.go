package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/xelth-com/stockflow/internal/services/printer"
	"github.com/xelth-com/stockflow/internal/utils"
)

func (r *Router) listItemQRCodes(w http.ResponseWriter, req *http.Request) {
	codes, err := r.svc.QRCodes.ListForItem(req.Context(), pathID(req))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, codes)
}

func (r *Router) createQRCode(w http.ResponseWriter, req *http.Request) {
	code, err := r.svc.QRCodes.Create(req.Context(), pathID(req))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, code)
}

func (r *Router) deleteQRCode(w http.ResponseWriter, req *http.Request) {
	codeID := req.URL.Query().Get("qrCodeId")
	if codeID == "" {
		respondError(w, utils.ValidationError("qrCodeId is required"))
		return
	}
	if err := r.svc.QRCodes.Delete(req.Context(), pathID(req), codeID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "QR code deleted successfully"})
}

func (r *Router) listQRCodes(w http.ResponseWriter, req *http.Request) {
	codes, err := r.svc.QRCodes.ListAll(req.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, codes)
}

// qrCodeImage renders a code as PNG; ?size= sets the edge in pixels
func (r *Router) qrCodeImage(w http.ResponseWriter, req *http.Request) {
	size := queryInt(req, "size", 256)
	if size > 1024 {
		size = 1024
	}
	png, err := r.svc.QRCodes.Image(req.Context(), pathID(req), size)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Write(png)
}

// printLabels handles the PDF label sheet request
func (r *Router) printLabels(w http.ResponseWriter, req *http.Request) {
	cfg := printer.DefaultLabelConfig()
	cfg.Count = queryInt(req, "count", cfg.Count)
	cfg.Cols = queryInt(req, "cols", cfg.Cols)
	cfg.Rows = queryInt(req, "rows", cfg.Rows)

	id := pathID(req)
	pdfBytes, err := r.svc.QRCodes.Labels(req.Context(), id, cfg)
	if err != nil {
		respondError(w, err)
		return
	}

	// Set headers for download
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"labels_%s.pdf\"", id))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))
	w.Write(pdfBytes)
}
