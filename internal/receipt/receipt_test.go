package receipt

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/anishk6674/kanchan-chilled/internal/billing"
	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/customer"
	"github.com/anishk6674/kanchan-chilled/internal/order"
	"github.com/anishk6674/kanchan-chilled/internal/pricing"
)

var issued = time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)

func sampleQuote() order.Quote {
	collected := 7
	delivery := pricing.Money(50)
	o := order.Order{
		ID:             "ord-1",
		CustomerID:     "o1",
		CanQty:         10,
		CollectedQty:   &collected,
		DeliveryAmount: &delivery,
		Status:         order.StatusDelivered,
		OrderDate:      time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC),
	}
	c := customer.Customer{ID: "o1", Name: "Ravi & Sons", Phone: "+919800000000", Type: customer.TypeOrder}
	q, err := order.QuoteWith(o, c, pricing.Sheet{OrderPrice: pricing.Price(60)}, order.DefaultPolicy())
	if err != nil {
		panic(err)
	}
	return q
}

type quoter struct{}

func (quoter) Quote(_ context.Context, id string) (order.Quote, error) {
	if id != "ord-1" {
		return order.Quote{}, common.NotFound("order", id)
	}
	return sampleQuote(), nil
}

func TestHTMLAndPDFShowSameFigures(t *testing.T) {
	biz := Business{Name: "Kanchan Chilled Water", Currency: "Rs."}
	preview := NewFigures(sampleQuote(), biz, issued)
	download := NewFigures(sampleQuote(), biz, issued)
	require.Equal(t, preview, download)
	require.Equal(t, "Rs. 2,150", preview.Total())

	var html bytes.Buffer
	require.NoError(t, RenderHTML(&html, preview))
	require.Contains(t, html.String(), "Rs. 2,150")
	require.Contains(t, html.String(), "Rs. 1,500")
	require.Contains(t, html.String(), "Ravi &amp; Sons")

	pdf, err := renderPDF(download, false)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	require.Contains(t, string(pdf), "Rs. 2,150")
	require.Contains(t, string(pdf), "Rs. 1,500")
}

func TestBillPDFAndWorkbook(t *testing.T) {
	month := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	b := billing.Bill{CustomerID: "C", Month: month, BillAmount: 1800, TotalCansDelivered: 6, TotalDeliveryDays: 3}
	days := []billing.LedgerDay{{Day: 1, Date: "2024-03-01", DeliveredQty: 2, Recorded: true}, {Day: 2, Date: "2024-03-02"}}

	pdf, err := renderBillPDF(BillDocument{
		Business: Business{Name: "Kanchan"},
		Customer: customer.Customer{ID: "C", Name: "Asha", Type: customer.TypeMonthly},
		Bill:     b,
		Days:     days,
	}, false)
	require.NoError(t, err)
	require.Contains(t, string(pdf), "Rs. 1,800")
	require.Contains(t, string(pdf), "March 2024")

	data, err := ExportBillsXLSX(month,
		[]billing.Snapshot{{CustomerID: "C", CustomerName: "Asha", CustomerType: customer.TypeMonthly, Month: month, TotalCansDelivered: 6, TotalDeliveryDays: 3, PricePerCan: 300, BillAmount: 1800}},
		[]billing.Failure{{CustomerID: "S", Code: billing.CodePriceUnresolvable, Message: "no price"}},
		[]billing.Bill{b})
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()
	amount, err := wb.GetCellValue("computed", "H2")
	require.NoError(t, err)
	require.Equal(t, "1800", amount)
	failed, err := wb.GetCellValue("computed", "I3")
	require.NoError(t, err)
	require.Contains(t, failed, billing.CodePriceUnresolvable)
	saved, err := wb.GetCellValue("saved", "A2")
	require.NoError(t, err)
	require.Equal(t, "C", saved)
}

func TestOrderHandlers(t *testing.T) {
	h := &Handler{Orders: quoter{}, Business: Business{Name: "Kanchan"}, Now: func() time.Time { return issued }}
	r := chi.NewRouter()
	r.Get("/orders/{id}/receipt", h.OrderHTML)
	r.Get("/orders/{id}/receipt.pdf", h.OrderPDF)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/ord-1/receipt", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), "Rs. 2,150")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/ord-1/receipt.pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/nope/receipt", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
