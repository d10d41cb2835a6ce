package app

import (
	"context"

	"github.com/dwikikusuma/shoping-session/internal/catalog/domain"
)

type ProductSource interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}
