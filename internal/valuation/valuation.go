// Package valuation holds the pure portfolio math used by every view.
// All results are rounded to cents.
package valuation

import (
	"paper_trading/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RoundCents rounds a monetary or percentage value to 2 decimal places.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// DebitCents rounds a cash outflow up to the next cent.
func DebitCents(d decimal.Decimal) decimal.Decimal {
	return d.RoundCeil(2)
}

// CreditCents rounds a cash inflow down to the previous cent.
func CreditCents(d decimal.Decimal) decimal.Decimal {
	return d.RoundFloor(2)
}

// TotalInvested is the capital put into the given positions:
// sum of purchase price x quantity.
func TotalInvested(positions ...models.Position) decimal.Decimal {
	total := decimal.Zero
	for _, p := range positions {
		total = total.Add(p.PurchasePrice.Mul(decimal.NewFromInt(p.Quantity)))
	}
	return RoundCents(total)
}

// CurrentValue is the market value of the given positions:
// sum of current price x quantity.
func CurrentValue(positions ...models.Position) decimal.Decimal {
	total := decimal.Zero
	for _, p := range positions {
		total = total.Add(p.Price.Mul(decimal.NewFromInt(p.Quantity)))
	}
	return RoundCents(total)
}

// ReturnPercent is the percentage gain of current over invested.
// Zero invested yields 0.
func ReturnPercent(current, invested decimal.Decimal) decimal.Decimal {
	if invested.IsZero() {
		return decimal.Zero
	}
	return RoundCents(current.Sub(invested).Div(invested).Mul(hundred))
}

// ShareOfPortfolio is the percentage a position's value represents of the
// whole portfolio. An empty portfolio yields 0.
func ShareOfPortfolio(positionValue, portfolioValue decimal.Decimal) decimal.Decimal {
	if portfolioValue.IsZero() {
		return decimal.Zero
	}
	return RoundCents(positionValue.Div(portfolioValue).Mul(hundred))
}

// Holding is a position together with its derived figures.
type Holding struct {
	models.Position
	Invested  decimal.Decimal `json:"invested"`
	Value     decimal.Decimal `json:"value"`
	ReturnPct decimal.Decimal `json:"return_pct"`
	SharePct  decimal.Decimal `json:"share_pct"`
}

// Summary is the dashboard view of an account.
type Summary struct {
	Balance   decimal.Decimal `json:"balance"`
	Invested  decimal.Decimal `json:"invested"`
	Value     decimal.Decimal `json:"value"`
	ReturnPct decimal.Decimal `json:"return_pct"`
	Holdings  []Holding       `json:"holdings"`
}

// Summarize computes the dashboard figures for a user record.
func Summarize(u models.User) Summary {
	s := Summary{
		Balance:  u.Balance,
		Invested: TotalInvested(u.Portfolio...),
		Value:    CurrentValue(u.Portfolio...),
		Holdings: make([]Holding, 0, len(u.Portfolio)),
	}
	s.ReturnPct = ReturnPercent(s.Value, s.Invested)

	for _, p := range u.Portfolio {
		invested := TotalInvested(p)
		value := CurrentValue(p)
		s.Holdings = append(s.Holdings, Holding{
			Position:  p,
			Invested:  invested,
			Value:     value,
			ReturnPct: ReturnPercent(value, invested),
			SharePct:  ShareOfPortfolio(value, s.Value),
		})
	}
	return s
}
