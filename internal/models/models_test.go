package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestUserMerge_ShallowTopLevel(t *testing.T) {
	base := User{
		Balance: decimal.NewFromInt(100),
		Portfolio: []Position{
			{Ticker: "AAPL", Quantity: 1},
		},
	}

	// Balance only: portfolio must survive.
	bal := decimal.NewFromInt(50)
	got := base.Merge(UserUpdate{Balance: &bal})
	if !got.Balance.Equal(bal) {
		t.Errorf("Expected balance 50, got %s", got.Balance)
	}
	if len(got.Portfolio) != 1 {
		t.Fatalf("Expected portfolio to be kept, got %d positions", len(got.Portfolio))
	}

	// Empty portfolio is a real value, not "unset".
	empty := []Position{}
	got = base.Merge(UserUpdate{Portfolio: &empty})
	if len(got.Portfolio) != 0 {
		t.Errorf("Expected empty portfolio, got %d positions", len(got.Portfolio))
	}
	if !got.Balance.Equal(base.Balance) {
		t.Errorf("Balance changed: %s", got.Balance)
	}
}

func TestUserClone_DoesNotAlias(t *testing.T) {
	u := User{Portfolio: []Position{{Ticker: "MSFT", Quantity: 3}}}
	c := u.Clone()
	c.Portfolio[0].Quantity = 99

	if u.Portfolio[0].Quantity != 3 {
		t.Errorf("Clone aliased the original portfolio")
	}
}

func TestNormalizeTicker(t *testing.T) {
	if got := NormalizeTicker("  aapl "); got != "AAPL" {
		t.Errorf("Expected AAPL, got %q", got)
	}
}
