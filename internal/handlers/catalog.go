package handlers

import (
	"net/http"

	"github.com/xelth-com/stockflow/internal/services/catalog"
)

func (r *Router) listCategories(w http.ResponseWriter, req *http.Request) {
	list, err := r.svc.Catalog.ListCategories(req.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) createCategory(w http.ResponseWriter, req *http.Request) {
	var in catalog.CategoryInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	category, err := r.svc.Catalog.CreateCategory(req.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

func (r *Router) updateCategory(w http.ResponseWriter, req *http.Request) {
	var in catalog.CategoryInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	category, err := r.svc.Catalog.UpdateCategory(req.Context(), pathID(req), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

func (r *Router) deleteCategory(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.Catalog.DeleteCategory(req.Context(), pathID(req)); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Category deleted successfully"})
}

func (r *Router) listItemCatalogs(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	page, err := r.svc.Catalog.ListItemCatalogs(req.Context(), catalog.CatalogFilter{
		Search:     q.Get("search"),
		CategoryID: q.Get("categoryId"),
		Status:     q.Get("status"),
		Page:       queryInt(req, "page", 1),
		Limit:      queryInt(req, "limit", 10),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (r *Router) createItemCatalog(w http.ResponseWriter, req *http.Request) {
	var in catalog.ItemCatalogInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	entry, err := r.svc.Catalog.CreateItemCatalog(req.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

func (r *Router) getItemCatalog(w http.ResponseWriter, req *http.Request) {
	entry, err := r.svc.Catalog.GetItemCatalog(req.Context(), pathID(req))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func (r *Router) updateItemCatalog(w http.ResponseWriter, req *http.Request) {
	var in catalog.ItemCatalogUpdate
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	entry, err := r.svc.Catalog.UpdateItemCatalog(req.Context(), pathID(req), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func (r *Router) deleteItemCatalog(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.Catalog.DeleteItemCatalog(req.Context(), pathID(req)); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Item catalog deleted successfully"})
}

func (r *Router) itemCatalogSuppliers(w http.ResponseWriter, req *http.Request) {
	offers, err := r.svc.Catalog.CatalogSuppliers(req.Context(), pathID(req))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, offers)
}
