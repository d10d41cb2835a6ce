package adapter

import (
	"context"

	cartapp "github.com/dwikikusuma/shoping-session/internal/cart/app"
	checkoutapp "github.com/dwikikusuma/shoping-session/internal/checkout/app"
)

type CartEngineReader struct {
	engine *cartapp.Engine
}

func NewCartEngineReader(engine *cartapp.Engine) *CartEngineReader {
	return &CartEngineReader{engine: engine}
}

func (r *CartEngineReader) GetCart(ctx context.Context) ([]checkoutapp.CartItem, error) {
	lines := r.engine.Snapshot().Lines()

	items := make([]checkoutapp.CartItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, checkoutapp.CartItem{
			ProductID: l.ProductID,
			Size:      l.Size,
			Quantity:  int64(l.Quantity),
		})
	}
	return items, nil
}
