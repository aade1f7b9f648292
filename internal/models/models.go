package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Position is one row of the portfolio.
//
// The JSON tags keep the shape of the record the web client stores, so an
// exported browser record can be loaded as-is.
type Position struct {
	Ticker        string          `json:"ticker"`         // Upper-case symbol, unique within the portfolio
	Name          string          `json:"name"`           // Display name of the issuer
	Price         decimal.Decimal `json:"price"`          // Last known market price
	PurchasePrice decimal.Decimal `json:"purchase_price"` // Weighted average purchase price
	Quantity      int64           `json:"quantity"`       // Shares held, always > 0 while present
	LastUpdated   string          `json:"lastUpdated"`    // yyyy-MM-dd of the last price update
}

// User is the single persisted account record: cash plus positions.
type User struct {
	Version   string          `json:"version,omitempty"` // Storage schema version
	Balance   decimal.Decimal `json:"balance"`
	Portfolio []Position      `json:"portfolio"`
}

// UserUpdate is a partial User. Nil fields are left untouched by Merge.
type UserUpdate struct {
	Balance   *decimal.Decimal
	Portfolio *[]Position
}

// Clone returns a deep copy so callers can't alias the portfolio slice.
func (u User) Clone() User {
	c := u
	c.Portfolio = make([]Position, len(u.Portfolio))
	copy(c.Portfolio, u.Portfolio)
	return c
}

// Merge applies a shallow top-level update and returns the result.
func (u User) Merge(up UserUpdate) User {
	out := u.Clone()
	if up.Balance != nil {
		out.Balance = *up.Balance
	}
	if up.Portfolio != nil {
		out.Portfolio = make([]Position, len(*up.Portfolio))
		copy(out.Portfolio, *up.Portfolio)
	}
	return out
}

// Quote is a point-in-time price snapshot used to execute a trade.
type Quote struct {
	Ticker string          `json:"ticker"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	AsOf   string          `json:"as_of"` // yyyy-MM-dd
}

// NormalizeTicker trims and upper-cases a symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
