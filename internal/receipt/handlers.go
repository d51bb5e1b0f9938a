package receipt

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/anishk6674/kanchan-chilled/internal/billing"
	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/customer"
	"github.com/anishk6674/kanchan-chilled/internal/obs"
	"github.com/anishk6674/kanchan-chilled/internal/order"
	"github.com/anishk6674/kanchan-chilled/internal/pricing"
)

// Quoter prices an order.
type Quoter interface {
	Quote(ctx context.Context, id string) (order.Quote, error)
}

// Bills reads saved and computed monthly bills.
type Bills interface {
	Get(ctx context.Context, customerID string, month time.Time) (billing.Bill, error)
	List(ctx context.Context, month time.Time) ([]billing.Bill, error)
	LedgerView(ctx context.Context, customerID string, month time.Time) ([]billing.LedgerDay, error)
	MonthlySnapshots(ctx context.Context, month time.Time, only customer.Type, sheet pricing.Sheet) ([]billing.Snapshot, []billing.Failure, error)
}

// Customers resolves bill owners.
type Customers interface {
	Get(ctx context.Context, id string) (customer.Customer, error)
}

// Prices resolves the current price sheet.
type Prices interface {
	Current(ctx context.Context) (pricing.Sheet, error)
}

// Handler serves printable documents.
type Handler struct {
	Orders    Quoter
	Bills     Bills
	Customers Customers
	Prices    Prices
	Business  Business
	Metrics   *obs.DomainMetrics
	Now       func() time.Time
}

// OrderHTML handles GET /api/v1/orders/{id}/receipt.
func (h *Handler) OrderHTML(w http.ResponseWriter, r *http.Request) {
	fig, err := h.figures(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := RenderHTML(&buf, fig); err != nil {
		common.WriteError(w, err)
		return
	}
	h.Metrics.Rendered("html")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// OrderPDF handles GET /api/v1/orders/{id}/receipt.pdf.
func (h *Handler) OrderPDF(w http.ResponseWriter, r *http.Request) {
	fig, err := h.figures(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	data, err := RenderPDF(fig)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.Metrics.Rendered("pdf")
	writeFile(w, "application/pdf", fmt.Sprintf("receipt-%s.pdf", fig.ReceiptNo), data)
}

// BillPDF handles GET /api/v1/bills/{customerID}/{month}/pdf.
func (h *Handler) BillPDF(w http.ResponseWriter, r *http.Request) {
	month, err := common.ParseMonth("month", chi.URLParam(r, "month"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	ctx := r.Context()
	b, err := h.Bills.Get(ctx, chi.URLParam(r, "customerID"), month)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.Customers.Get(ctx, b.CustomerID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	days, err := h.Bills.LedgerView(ctx, b.CustomerID, month)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	data, err := RenderBillPDF(BillDocument{Business: h.Business, Customer: c, Bill: b, Days: days})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.Metrics.Rendered("bill_pdf")
	writeFile(w, "application/pdf", fmt.Sprintf("bill-%s-%s.pdf", b.CustomerID, month.Format(common.MonthLayout)), data)
}

// ExportXLSX handles GET /api/v1/monthly-bills/export.xlsx?month=YYYY-MM.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	month, err := common.ParseMonth("month", r.URL.Query().Get("month"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	ctx := r.Context()
	sheet, err := h.Prices.Current(ctx)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	snaps, fails, err := h.Bills.MonthlySnapshots(ctx, month, customer.Type(r.URL.Query().Get("type")), sheet)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	saved, err := h.Bills.List(ctx, month)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	data, err := ExportBillsXLSX(month, snaps, fails, saved)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.Metrics.Rendered("xlsx")
	writeFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		fmt.Sprintf("bills-%s.xlsx", month.Format(common.MonthLayout)), data)
}

func (h *Handler) figures(r *http.Request) (Figures, error) {
	q, err := h.Orders.Quote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return Figures{}, err
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	return NewFigures(q, h.Business, now()), nil
}

func writeFile(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
