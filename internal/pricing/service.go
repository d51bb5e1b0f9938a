package pricing

import (
	"context"
	"errors"

	"github.com/anishk6674/kanchan-chilled/internal/common"
)

// Service publishes and resolves price sheets.
type Service struct {
	Store Store
}

// SheetInput is the payload for publishing a sheet.
type SheetInput struct {
	OrderPrice   *Money `json:"order_price" validate:"omitempty,gte=0"`
	ShopPrice    *Money `json:"shop_price" validate:"omitempty,gte=0"`
	MonthlyPrice *Money `json:"monthly_price" validate:"omitempty,gte=0"`
}

// Current returns the currently effective sheet.
func (s *Service) Current(ctx context.Context) (Sheet, error) {
	sh, err := s.Store.Current(ctx)
	if errors.Is(err, ErrNoSheet) {
		return Sheet{}, common.NotFound("price sheet", "current")
	}
	return sh, err
}

// Publish stores a new current sheet. At least one price must be set.
func (s *Service) Publish(ctx context.Context, in SheetInput) (Sheet, error) {
	if err := common.ValidateStruct(in); err != nil {
		return Sheet{}, err
	}
	if in.OrderPrice == nil && in.ShopPrice == nil && in.MonthlyPrice == nil {
		return Sheet{}, common.Validation("prices", "at least one price is required")
	}
	return s.Store.Insert(ctx, Sheet{
		OrderPrice:   in.OrderPrice,
		ShopPrice:    in.ShopPrice,
		MonthlyPrice: in.MonthlyPrice,
	})
}
