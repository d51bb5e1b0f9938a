package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/anishk6674/kanchan-chilled/internal/customer"
)

// Money represents a monetary value in whole currency units.
type Money = int64

// ErrPriceUnresolvable is returned when the sheet has no price for a customer type.
var ErrPriceUnresolvable = errors.New("pricing: price not resolvable")

// Sheet is one published set of per-can prices. Only the most recently
// published sheet is current. A nil price was never set.
type Sheet struct {
	ID           int64     `json:"id"`
	OrderPrice   *Money    `json:"order_price"`
	ShopPrice    *Money    `json:"shop_price"`
	MonthlyPrice *Money    `json:"monthly_price"`
	EffectiveAt  time.Time `json:"effective_at"`
}

// PriceFor resolves the per-can price for a customer type: shop price for
// shops, monthly price for monthly customers, order price otherwise.
func (s Sheet) PriceFor(t customer.Type) (Money, error) {
	var p *Money
	switch t {
	case customer.TypeShop:
		p = s.ShopPrice
	case customer.TypeMonthly:
		p = s.MonthlyPrice
	default:
		p = s.OrderPrice
	}
	if p == nil {
		return 0, fmt.Errorf("%w for customer type %q", ErrPriceUnresolvable, t)
	}
	return *p, nil
}

// Price returns a pointer to m, for building sheets.
func Price(m Money) *Money {
	return &m
}
