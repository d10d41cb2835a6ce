package app

import (
	"context"

	"github.com/dwikikusuma/shoping-session/internal/cart/domain"
	catalogdomain "github.com/dwikikusuma/shoping-session/internal/catalog/domain"
)

// Mirror is the remote side of the cart.
type Mirror interface {
	AddCartItem(ctx context.Context, token, productID, size string) error
	UpdateCartItem(ctx context.Context, token, productID, size string, qty int) error
	GetCart(ctx context.Context, token string) (domain.Cart, error)
}

type PriceBook interface {
	Price(productID string) (catalogdomain.Money, bool)
}

// TokenSource reports the current session token, "" when logged out.
type TokenSource interface {
	Token() string
}

type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }
