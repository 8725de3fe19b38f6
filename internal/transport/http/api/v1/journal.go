package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bafnalights-dot/stock/internal/model"
)

func (h *handler) listRecords(kind model.RecordKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := model.RecordFilter{Kind: kind}
		if v := r.URL.Query().Get("item_id"); v != "" {
			id, err := optionalUUID(&v, "item_id")
			if err != nil {
				writeError(w, r, err)
				return
			}
			filter.ItemID = id
		}

		records, err := h.journal.List(r.Context(), filter)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, toRecordResponses(records))
	}
}

func (h *handler) createRecord(kind model.RecordKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		rec, err := h.journal.Create(r.Context(), req.toParams(kind))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, toRecordResponse(rec))
	}
}

// createRecordBatch stores records in order and stops at the first failure.
// Records before the failing one stay committed and are listed in the response.
func (h *handler) createRecordBatch(kind model.RecordKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordBatchRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		params := make([]model.CreateRecordParams, 0, len(req.Records))
		for _, rec := range req.Records {
			params = append(params, rec.toParams(kind))
		}

		res := h.journal.CreateBatch(r.Context(), params)
		out := recordBatchResponse{
			Created:     toRecordResponses(res.Created),
			FailedIndex: res.FailedIndex,
		}
		if res.Err != nil {
			out.Detail = detail(res.Err)
			writeJSON(w, r, statusFor(res.Err), out)
			return
		}
		writeJSON(w, r, http.StatusOK, out)
	}
}

func (h *handler) editRecord(kind model.RecordKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}

		q := r.URL.Query()
		raw := strings.TrimSpace(q.Get("new_quantity"))
		if raw == "" {
			writeError(w, r, model.ValidationError("new_quantity is required"))
			return
		}
		qty, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(w, r, model.ValidationError("new_quantity must be a number"))
			return
		}

		params := model.EditRecordParams{ID: id, Kind: kind, NewQuantity: qty}
		if kind == model.KindSale && q.Has("party_name") {
			party := q.Get("party_name")
			params.NewPartyName = &party
		}

		rec, err := h.journal.Edit(r.Context(), params)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, toRecordResponse(rec))
	}
}

func (h *handler) deleteRecord(kind model.RecordKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}

		if err := h.journal.Delete(r.Context(), kind, id); err != nil {
			writeError(w, r, err)
			return
		}

		what := "Production record"
		if kind == model.KindSale {
			what = "Sales record"
		}
		writeJSON(w, r, http.StatusOK, messageResponse{Message: what + " deleted"})
	}
}

func (h *handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.journal.ListPurchases(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, toPurchaseResponse(p))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	params, err := req.toParams()
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.journal.CreatePurchase(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toPurchaseResponse(p))
}
