package http

import (
	"net/http"

	"github.com/bafnalights-dot/stock/internal/model"
)

func (h *handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.catalog.ListSuppliers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]supplierResponse, 0, len(suppliers))
	for _, s := range suppliers {
		out = append(out, toSupplierResponse(s))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.catalog.CreateSupplier(r.Context(), model.CreateSupplierParams{
		Name:        req.Name,
		ContactInfo: req.ContactInfo,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toSupplierResponse(s))
}

func (h *handler) listParts(w http.ResponseWriter, r *http.Request) {
	parts, err := h.catalog.ListParts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]partResponse, 0, len(parts))
	for _, p := range parts {
		out = append(out, toPartResponse(p))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *handler) createPart(w http.ResponseWriter, r *http.Request) {
	var req partRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	params, err := req.toParams()
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.catalog.CreatePart(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toPartResponse(p))
}

func (h *handler) updatePart(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req partUpdateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	supplierID, err := optionalUUID(req.SupplierID, "supplier_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.catalog.UpdatePart(r.Context(), model.UpdatePartParams{
		ID:                id,
		Name:              req.Name,
		Category:          req.Category,
		SupplierID:        supplierID,
		PurchasePrice:     req.PurchasePrice,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toPartResponse(p))
}

func (h *handler) listPartStocks(w http.ResponseWriter, r *http.Request) {
	parts, err := h.catalog.ListParts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]partStockResponse, 0, len(parts))
	for _, p := range parts {
		out = append(out, toPartStockResponse(p))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *handler) createPartStock(w http.ResponseWriter, r *http.Request) {
	var req partStockRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.catalog.CreatePart(r.Context(), model.CreatePartParams{
		Name:              req.PartName,
		Category:          req.Category,
		Quantity:          req.OpeningStock,
		PurchasePrice:     req.PurchasePrice,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toPartStockResponse(p))
}

func (h *handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.catalog.CreateProduct(r.Context(), model.CreateProductParams{
		Name:         req.Name,
		Category:     req.Category,
		OpeningStock: req.Quantity,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProductResponse(p))
}

func (h *handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.catalog.Product(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProductResponse(p))
}

func (h *handler) listItems(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]itemResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toItemResponse(p))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.catalog.CreateProduct(r.Context(), req.toParams())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toItemResponse(p))
}

func (h *handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.catalog.Product(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toItemResponse(p))
}

func (h *handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req itemUpdateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.catalog.UpdateProduct(r.Context(), model.UpdateProductParams{
		ID:       id,
		Name:     req.Name,
		Category: req.Category,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toItemResponse(p))
}
