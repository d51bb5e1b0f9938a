package billing

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/customer"
	"github.com/anishk6674/kanchan-chilled/internal/pricing"
)

// Prices resolves the price sheet used for one billing operation.
type Prices interface {
	Current(ctx context.Context) (pricing.Sheet, error)
}

// Enqueuer schedules a background bill run for month and returns its task id.
type Enqueuer interface {
	EnqueueGenerate(ctx context.Context, month time.Time) (string, error)
}

// Handler exposes monthly bill endpoints.
type Handler struct {
	Svc    *Service
	Prices Prices
	Jobs   Enqueuer
}

type saveRequest struct {
	Bills []Input `json:"bills" validate:"required,min=1,max=1000"`
}

type generateRequest struct {
	Month string `json:"month"`
	Async bool   `json:"async"`
}

// Snapshots handles GET /api/v1/monthly-bills?month=YYYY-MM[&type=].
func (h *Handler) Snapshots(w http.ResponseWriter, r *http.Request) {
	month, err := common.ParseMonth("month", r.URL.Query().Get("month"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	sheet, err := h.Prices.Current(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	snaps, fails, err := h.Svc.MonthlySnapshots(r.Context(), month, customer.Type(r.URL.Query().Get("type")), sheet)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snaps, "failed": fails})
}

// Generate handles POST /api/v1/monthly-bills/generate.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	month, err := common.ParseMonth("month", req.Month)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if req.Async {
		if h.Jobs == nil {
			common.WriteError(w, common.Upstream(errors.New("job queue not configured")))
			return
		}
		id, err := h.Jobs.EnqueueGenerate(r.Context(), month)
		if err != nil {
			common.WriteError(w, common.Upstream(err))
			return
		}
		common.JSON(w, http.StatusAccepted, map[string]any{"task_id": id, "month": month.Format(common.MonthLayout)})
		return
	}
	sheet, err := h.Prices.Current(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	res, err := h.Svc.Generate(r.Context(), month, sheet)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, batchStatus(res), res)
}

// List handles GET /api/v1/bills?month=YYYY-MM.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	month, err := common.ParseMonth("month", r.URL.Query().Get("month"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	bills, err := h.Svc.List(r.Context(), month)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": bills})
}

// Save handles POST /api/v1/bills.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.WriteError(w, err)
		return
	}
	res := h.Svc.Save(r.Context(), req.Bills)
	common.JSON(w, batchStatus(res), res)
}

// UpdateStatus handles PATCH /api/v1/bills/{customerID}/{month}.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	month, err := common.ParseMonth("month", chi.URLParam(r, "month"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var upd StatusUpdate
	if err := common.DecodeJSON(r, &upd); err != nil {
		common.WriteError(w, err)
		return
	}
	b, err := h.Svc.UpdateStatus(r.Context(), chi.URLParam(r, "customerID"), month, upd)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": b})
}

// Send handles POST /api/v1/bills/{customerID}/{month}/send.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	month, err := common.ParseMonth("month", chi.URLParam(r, "month"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	b, err := h.Svc.Send(r.Context(), chi.URLParam(r, "customerID"), month)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": b})
}

// LedgerView handles GET /api/v1/ledger/view?customer_id&month.
func (h *Handler) LedgerView(w http.ResponseWriter, r *http.Request) {
	month, err := common.ParseMonth("month", r.URL.Query().Get("month"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	days, err := h.Svc.LedgerView(r.Context(), r.URL.Query().Get("customer_id"), month)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": days})
}

// batchStatus is 200 when nothing failed, 207 on partial success and 422
// when every item failed.
func batchStatus(res BatchResult) int {
	switch {
	case len(res.Failed) == 0:
		return http.StatusOK
	case len(res.Saved) > 0:
		return http.StatusMultiStatus
	default:
		return http.StatusUnprocessableEntity
	}
}
