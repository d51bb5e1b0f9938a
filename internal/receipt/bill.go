package receipt

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/anishk6674/kanchan-chilled/internal/billing"
	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/customer"
)

// BillDocument is a saved monthly bill with the delivery calendar behind it.
type BillDocument struct {
	Business Business
	Customer customer.Customer
	Bill     billing.Bill
	Days     []billing.LedgerDay
}

// RenderBillPDF renders a monthly bill with its per-day deliveries.
func RenderBillPDF(doc BillDocument) ([]byte, error) {
	return renderBillPDF(doc, true)
}

func renderBillPDF(doc BillDocument, compress bool) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, tr(doc.Business.Name))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Monthly bill: %s", doc.Bill.Month.Format("January 2006")))
	pdf.Ln(5)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Customer: %s (%s)", doc.Customer.Name, doc.Customer.Type)))
	pdf.Ln(5)
	if doc.Customer.Phone != "" {
		pdf.Cell(0, 6, tr(fmt.Sprintf("Phone: %s", doc.Customer.Phone)))
		pdf.Ln(5)
	}
	pdf.Ln(3)
	pdf.Cell(0, 6, fmt.Sprintf("Cans delivered: %d", doc.Bill.TotalCansDelivered))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Delivery days: %d", doc.Bill.TotalDeliveryDays))
	pdf.Ln(5)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Amount due: %s", doc.Business.Money(doc.Bill.BillAmount))))
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Paid: %s", yesNo(doc.Bill.PaidStatus)))
	pdf.Ln(9)

	// calendar grid, seven days per row
	pdf.SetFont("Arial", "B", 9)
	const cellW, cellH = 26.0, 10.0
	for i, d := range doc.Days {
		if i > 0 && i%7 == 0 {
			pdf.Ln(-1)
		}
		label := fmt.Sprintf("%d: -", d.Day)
		if d.Recorded {
			label = fmt.Sprintf("%d: %d", d.Day, d.DeliveredQty)
		}
		pdf.CellFormat(cellW, cellH, label, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportBillsXLSX writes a workbook with the month's computed snapshots and
// the saved bills side by side.
func ExportBillsXLSX(month time.Time, snaps []billing.Snapshot, fails []billing.Failure, saved []billing.Bill) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const snapSheet, savedSheet = "computed", "saved"
	if err := f.SetSheetName("Sheet1", snapSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(savedSheet); err != nil {
		return nil, err
	}

	header := []any{"Customer ID", "Name", "Type", "Month", "Cans", "Delivery days", "Price per can", "Amount", "Error"}
	if err := f.SetSheetRow(snapSheet, "A1", &header); err != nil {
		return nil, err
	}
	row := 2
	for _, s := range snaps {
		vals := []any{s.CustomerID, s.CustomerName, string(s.CustomerType), month.Format(common.MonthLayout),
			s.TotalCansDelivered, s.TotalDeliveryDays, s.PricePerCan, s.BillAmount, ""}
		if err := f.SetSheetRow(snapSheet, fmt.Sprintf("A%d", row), &vals); err != nil {
			return nil, err
		}
		row++
	}
	for _, fl := range fails {
		vals := []any{fl.CustomerID, "", "", month.Format(common.MonthLayout), nil, nil, nil, nil, fl.Code + ": " + fl.Message}
		if err := f.SetSheetRow(snapSheet, fmt.Sprintf("A%d", row), &vals); err != nil {
			return nil, err
		}
		row++
	}

	header = []any{"Customer ID", "Month", "Cans", "Delivery days", "Amount", "Paid", "Sent"}
	if err := f.SetSheetRow(savedSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, b := range saved {
		vals := []any{b.CustomerID, b.Month.Format(common.MonthLayout), b.TotalCansDelivered, b.TotalDeliveryDays,
			b.BillAmount, b.PaidStatus, b.SentStatus}
		if err := f.SetSheetRow(savedSheet, fmt.Sprintf("A%d", i+2), &vals); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
