package domain

import (
	"fmt"
	"math"
	"time"
)

// MinorUnits is how many minor units make one major unit of currency.
const MinorUnits = 100

// Money is an amount in minor units (paise, cents), so fractional prices
// multiply exactly.
type Money struct {
	Currency string
	Amount   int64
}

// FromMajor converts a major-unit price such as 10.5 to minor units.
func FromMajor(currency string, major float64) Money {
	return Money{Currency: currency, Amount: int64(math.Round(major * MinorUnits))}
}

// String prints the amount in major units, with two decimals only when the
// amount is not whole.
func (m Money) String() string {
	return FormatMinor(m.Currency, m.Amount)
}

func FormatMinor(currency string, amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	whole, frac := amount/MinorUnits, amount%MinorUnits
	if frac == 0 {
		return fmt.Sprintf("%s%s%d", currency, sign, whole)
	}
	return fmt.Sprintf("%s%s%d.%02d", currency, sign, whole, frac)
}

func (m Money) Mul(qty int) Money {
	return Money{Currency: m.Currency, Amount: m.Amount * int64(qty)}
}

func (m Money) Add(o Money) Money {
	cur := m.Currency
	if cur == "" {
		cur = o.Currency
	}
	return Money{Currency: cur, Amount: m.Amount + o.Amount}
}

// Product is a catalog entry. Entries are immutable once loaded.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       Money
	Category    string
	SubCategory string
	Sizes       []string
	Images      []string
	Bestseller  bool
	CreatedAt   time.Time
}
