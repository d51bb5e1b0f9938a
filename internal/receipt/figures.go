package receipt

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/order"
	"github.com/anishk6674/kanchan-chilled/internal/pricing"
)

// Business is the letterhead printed on every document.
type Business struct {
	Name     string
	Phone    string
	Currency string
}

// Money formats an amount with the currency symbol and digit grouping.
func (b Business) Money(m pricing.Money) string {
	currency := b.Currency
	if currency == "" {
		currency = "Rs."
	}
	return message.NewPrinter(language.English).Sprintf("%s %d", currency, m)
}

// Figures is everything a receipt shows. HTML and PDF receipts are both
// rendered from one Figures value, so they always agree.
type Figures struct {
	Business        Business
	ReceiptNo       string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Status          string
	OrderDate       string
	DeliveryDate    string
	CollectionDate  string
	Charge          order.Charge
	IssuedAt        time.Time
}

// NewFigures builds the receipt figures of a priced order.
func NewFigures(q order.Quote, b Business, issuedAt time.Time) Figures {
	return Figures{
		Business:        b,
		ReceiptNo:       q.Order.ID,
		CustomerName:    q.Customer.Name,
		CustomerPhone:   q.Customer.Phone,
		CustomerAddress: q.Customer.Address,
		Status:          string(q.Order.Status),
		OrderDate:       q.Order.OrderDate.Format(common.DateLayout),
		DeliveryDate:    optionalDate(q.Order.DeliveryDate),
		CollectionDate:  optionalDate(q.Order.CollectionDate),
		Charge:          q.Charge,
		IssuedAt:        issuedAt,
	}
}

// Line is one labelled amount row.
type Line struct {
	Label  string
	Detail string
	Amount string
}

// Lines returns the receipt body rows in print order.
func (f Figures) Lines() []Line {
	c := f.Charge
	p := message.NewPrinter(language.English)
	return []Line{
		{Label: "Water cans", Detail: p.Sprintf("%d x %s", c.CanQty, f.Business.Money(c.PricePerCan)), Amount: f.Business.Money(c.Subtotal)},
		{Label: "Delivery", Amount: f.Business.Money(c.DeliveryAmount)},
		{Label: "Missing cans", Detail: p.Sprintf("%d of %d not returned x %s", c.MissingCans, c.CanQty, f.Business.Money(c.PenaltyPerCan)), Amount: f.Business.Money(c.MissingCanCharge)},
	}
}

// Total is the formatted total amount.
func (f Figures) Total() string {
	return f.Business.Money(f.Charge.TotalAmount)
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(common.DateLayout)
}
