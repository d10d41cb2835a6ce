package domain

import catalogdomain "github.com/dwikikusuma/shoping-session/internal/catalog/domain"

// Money is in minor units, like catalog prices.
type Money struct {
	Currency string
	Amount   int64
}

func (m Money) String() string {
	return catalogdomain.FormatMinor(m.Currency, m.Amount)
}

type QuoteLine struct {
	ProductID string
	Name      string
	Size      string
	Quantity  int64
	UnitPrice Money
	LineTotal Money
}

// Quote is what the cart-totals view renders. DeliveryFee is zero for an
// empty cart.
type Quote struct {
	Lines       []QuoteLine
	Subtotal    Money
	DeliveryFee Money
	Total       Money
}

func (q Quote) Empty() bool {
	return len(q.Lines) == 0
}
