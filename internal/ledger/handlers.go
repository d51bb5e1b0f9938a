package ledger

import (
	"net/http"
	"strings"

	"github.com/anishk6674/kanchan-chilled/internal/common"
)

// Handler exposes the daily ledger endpoints.
type Handler struct {
	Svc *Service
}

// Query handles GET /api/v1/ledger. Supported forms:
// ?customer_id&date, ?customer_id&month, ?customer_id&start&end and ?date.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	customerID := strings.TrimSpace(q.Get("customer_id"))
	ctx := r.Context()

	switch {
	case customerID != "" && q.Get("date") != "":
		date, err := common.ParseDate("date", q.Get("date"))
		if err != nil {
			common.WriteError(w, err)
			return
		}
		entry, err := h.Svc.Get(ctx, customerID, date)
		if err != nil {
			common.WriteError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": entry})
	case customerID != "" && q.Get("month") != "":
		month, err := common.ParseMonth("month", q.Get("month"))
		if err != nil {
			common.WriteError(w, err)
			return
		}
		entries, err := h.Svc.EntriesForMonth(ctx, customerID, month)
		if err != nil {
			common.WriteError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": entries})
	case customerID != "" && q.Get("start") != "":
		start, err := common.ParseDate("start", q.Get("start"))
		if err != nil {
			common.WriteError(w, err)
			return
		}
		end, err := common.ParseDate("end", q.Get("end"))
		if err != nil {
			common.WriteError(w, err)
			return
		}
		entries, err := h.Svc.EntriesForCustomerInRange(ctx, customerID, start, end)
		if err != nil {
			common.WriteError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": entries})
	case q.Get("date") != "":
		date, err := common.ParseDate("date", q.Get("date"))
		if err != nil {
			common.WriteError(w, err)
			return
		}
		entries, err := h.Svc.EntriesForDate(ctx, date)
		if err != nil {
			common.WriteError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": entries})
	default:
		common.WriteError(w, common.Validation("query", "provide date, or customer_id with date, month or start/end"))
	}
}

// Upsert handles POST /api/v1/ledger.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var in UpsertInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	res, err := h.Svc.Upsert(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, res)
}

// Reconcile handles GET /api/v1/ledger/reconcile?customer_id&month.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	customerID := strings.TrimSpace(q.Get("customer_id"))
	if customerID == "" {
		common.WriteError(w, common.Validation("customer_id", "is required"))
		return
	}
	month, err := common.ParseMonth("month", q.Get("month"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	rec, err := h.Svc.Reconcile(r.Context(), customerID, month)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rec})
}
