package adapter

import (
	"context"
	"errors"

	catalogapp "github.com/dwikikusuma/shoping-session/internal/catalog/app"
	checkoutapp "github.com/dwikikusuma/shoping-session/internal/checkout/app"
)

type CatalogServiceReader struct {
	svc *catalogapp.Service
}

func NewCatalogServiceReader(svc *catalogapp.Service) *CatalogServiceReader {
	return &CatalogServiceReader{svc: svc}
}

func (r *CatalogServiceReader) GetProduct(_ context.Context, productID string) (checkoutapp.Product, error) {
	p, err := r.svc.GetProduct(productID)
	if errors.Is(err, catalogapp.ErrNotFound) || errors.Is(err, catalogapp.ErrInvalidInput) {
		return checkoutapp.Product{}, checkoutapp.ErrProductNotFound
	}
	if err != nil {
		return checkoutapp.Product{}, err
	}

	return checkoutapp.Product{
		ID:       p.ID,
		Name:     p.Name,
		Currency: p.Price.Currency,
		Amount:   p.Price.Amount,
	}, nil
}
