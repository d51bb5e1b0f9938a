package receipt

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/jung-kurt/gofpdf"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var receiptHTML = template.Must(template.ParseFS(templateFS, "templates/receipt.html.tmpl"))

// RenderHTML writes the printable HTML receipt.
func RenderHTML(w io.Writer, f Figures) error {
	return receiptHTML.Execute(w, f)
}

// RenderPDF returns the receipt as an A5 PDF.
func RenderPDF(f Figures) ([]byte, error) {
	return renderPDF(f, true)
}

func renderPDF(f Figures, compress bool) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetCompression(compress)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, tr(f.Business.Name))
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 9)
	if f.Business.Phone != "" {
		pdf.Cell(0, 5, tr(f.Business.Phone))
		pdf.Ln(5)
	}
	pdf.Ln(3)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Receipt: %s", f.ReceiptNo)))
	pdf.Ln(5)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Customer: %s", f.CustomerName)))
	pdf.Ln(5)
	if f.CustomerAddress != "" {
		pdf.Cell(0, 6, tr(f.CustomerAddress))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Order date: %s   Delivered: %s   Collected: %s", f.OrderDate, f.DeliveryDate, f.CollectionDate))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", f.Status))
	pdf.Ln(9)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(35, 6, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, 6, "Detail", "1", 0, "L", false, 0, "")
	pdf.CellFormat(33, 6, "Amount", "1", 0, "R", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, line := range f.Lines() {
		pdf.CellFormat(35, 6, line.Label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, tr(line.Detail), "1", 0, "L", false, 0, "")
		pdf.CellFormat(33, 6, tr(line.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(95, 7, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(33, 7, tr(f.Total()), "1", 0, "R", false, 0, "")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 8)
	pdf.Cell(0, 5, fmt.Sprintf("Issued %s", f.IssuedAt.Format("2006-01-02 15:04")))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
