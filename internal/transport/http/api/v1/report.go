package http

import (
	"net/http"
	"strconv"

	"github.com/bafnalights-dot/stock/internal/model"
	"github.com/bafnalights-dot/stock/platform/logger"
)

func (h *handler) transactions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}

	ts, err := h.reports.Transactions(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toTransactionResponses(ts))
}

// stockMovements lists ledger movements, optionally for one entity
// selected by entity_type and entity_id.
func (h *handler) stockMovements(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	var ref *model.StockRef
	if rawID := q.Get("entity_id"); rawID != "" {
		id, err := optionalUUID(&rawID, "entity_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		entity := model.EntityType(q.Get("entity_type"))
		if !entity.Valid() {
			writeError(w, r, model.ValidationError("entity_type must be %q or %q", model.EntityPart, model.EntityProduct))
			return
		}
		ref = &model.StockRef{Type: entity, ID: *id}
	}

	movements, err := h.ledger.Movements(r.Context(), ref, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]movementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, toMovementResponse(m))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *handler) itemDetails(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "itemID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	d, err := h.reports.ItemDetails(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, itemDetailsResponse{
		Item:       toItemResponse(d.Item),
		Production: toRecordResponses(d.Production),
		Sales:      toRecordResponses(d.Sales),
	})
}

func (h *handler) dashboardStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.reports.DashboardStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dashboardResponse{
		TotalParts:         s.TotalParts,
		TotalProducts:      s.TotalProducts,
		LowStockCount:      s.LowStockCount,
		RecentTransactions: toTransactionResponses(s.RecentTransactions),
	})
}

func (h *handler) exportExcel(w http.ResponseWriter, r *http.Request) {
	wb, err := h.reports.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", model.ExcelContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+wb.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(wb.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(wb.Content); err != nil {
		logger.Error(r.Context(), "write workbook", logger.ErrorF(err))
	}
}

func (h *handler) emailReport(w http.ResponseWriter, r *http.Request) {
	var req emailReportRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.reports.RequestEmailReport(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, emailReportResponse{
		Message:   "Report will be sent to " + res.Email,
		RequestID: res.RequestID,
	})
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.ValidationError("%s must be an integer", name)
	}
	return n, nil
}
