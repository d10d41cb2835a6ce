package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dwikikusuma/shoping-session/internal/checkout/domain"
	"golang.org/x/sync/errgroup"
)

var ErrProductNotFound = errors.New("product not found")

type CartReader interface {
	GetCart(ctx context.Context) ([]CartItem, error)
}

type CartItem struct {
	ProductID string
	Size      string
	Quantity  int64
}

type CatalogReader interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
}

type Product struct {
	ID       string
	Name     string
	Currency string
	Amount   int64
}

type Service struct {
	Cart    CartReader
	Catalog CatalogReader

	currency      string
	deliveryFee   int64
	maxConcurrent int
}

// NewService takes deliveryFee in minor units.
func NewService(cart CartReader, catalog CatalogReader, currency string, deliveryFee int64, maxConcurrent int) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}

	return &Service{
		Cart:          cart,
		Catalog:       catalog,
		currency:      currency,
		deliveryFee:   deliveryFee,
		maxConcurrent: maxConcurrent,
	}
}

func (s *Service) DeliveryFee() domain.Money {
	return domain.Money{Currency: s.currency, Amount: s.deliveryFee}
}

// Quote prices the cart. Lines with a non-positive quantity or a product the
// catalog no longer has are left out rather than failing the quote.
func (s *Service) Quote(ctx context.Context) (domain.Quote, error) {
	items, err := s.Cart.GetCart(ctx)
	if err != nil {
		return domain.Quote{}, err
	}

	lines := make([]*domain.QuoteLine, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for idx := range items {
		it := items[idx]
		if it.Quantity <= 0 {
			continue
		}
		g.Go(func() error {
			product, err := s.Catalog.GetProduct(ctx, it.ProductID)
			if errors.Is(err, ErrProductNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to get product %s: %w", it.ProductID, err)
			}

			lines[idx] = &domain.QuoteLine{
				ProductID: product.ID,
				Name:      product.Name,
				Size:      it.Size,
				Quantity:  it.Quantity,
				UnitPrice: domain.Money{Currency: product.Currency, Amount: product.Amount},
				LineTotal: domain.Money{Currency: product.Currency, Amount: product.Amount * it.Quantity},
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.Quote{}, err
	}

	quote := domain.Quote{
		Subtotal:    domain.Money{Currency: s.currency},
		DeliveryFee: domain.Money{Currency: s.currency},
		Total:       domain.Money{Currency: s.currency},
	}
	for _, line := range lines {
		if line == nil {
			continue
		}
		quote.Lines = append(quote.Lines, *line)
		quote.Subtotal.Amount += line.LineTotal.Amount
	}

	if quote.Subtotal.Amount > 0 {
		quote.DeliveryFee.Amount = s.deliveryFee
	}
	quote.Total.Amount = quote.Subtotal.Amount + quote.DeliveryFee.Amount

	return quote, nil
}
