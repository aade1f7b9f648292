// Package ledger owns the account balance and positions and enforces their
// invariants. Every mutation is validated in full, written through to the
// store, and then reloaded from it, so memory only ever reflects what the
// store accepted.
package ledger

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"paper_trading/internal/market"
	"paper_trading/internal/models"
	"paper_trading/internal/storage"
	"paper_trading/internal/valuation"

	"github.com/shopspring/decimal"
)

// MaxPositions caps the number of distinct tickers held.
const MaxPositions = 5

// Ledger is the portfolio state machine.
type Ledger struct {
	store  storage.Store
	prices market.PriceProvider
	now    func() time.Time

	mu   sync.Mutex // held for the whole of every mutation
	user models.User
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the clock used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a Ledger. Call Load before use to read the stored record.
func New(store storage.Store, prices market.PriceProvider, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		prices: prices,
		now:    time.Now,
		user:   storage.DefaultUser(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load replaces the in-memory record with the stored one.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked(ctx)
}

func (l *Ledger) loadLocked(ctx context.Context) error {
	u, err := l.store.GetUser(ctx)
	if err != nil {
		return fmt.Errorf("load user record: %w", err)
	}
	l.user = u.Clone()
	return nil
}

// commitLocked writes the update and reloads so memory matches the store.
// If the reload fails the write still stands, so the merged update is
// applied in memory and the error is returned as ErrReloadFailed.
func (l *Ledger) commitLocked(ctx context.Context, up models.UserUpdate) error {
	if err := l.store.UpdateUser(ctx, up); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	if err := l.loadLocked(ctx); err != nil {
		l.user = l.user.Merge(up)
		return fmt.Errorf("%w: %v", ErrReloadFailed, err)
	}
	return nil
}

// Snapshot returns a copy of the current record.
func (l *Ledger) Snapshot() models.User {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.user.Clone()
}

// Balance returns the available cash.
func (l *Ledger) Balance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.user.Balance
}

// Positions returns a copy of the held positions, in purchase order.
func (l *Ledger) Positions() []models.Position {
	return l.Snapshot().Portfolio
}

// PositionByTicker looks a position up, ignoring case.
func (l *Ledger) PositionByTicker(ticker string) (models.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i := indexOf(l.user.Portfolio, models.NormalizeTicker(ticker)); i >= 0 {
		return l.user.Portfolio[i], true
	}
	return models.Position{}, false
}

// Deposit adds cash. Non-positive amounts are ignored.
func (l *Ledger) Deposit(ctx context.Context, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance := valuation.RoundCents(l.user.Balance.Add(amount))
	if err := l.commitLocked(ctx, models.UserUpdate{Balance: &balance}); err != nil {
		return err
	}
	log.Printf("[LEDGER] Deposit $%s | Balance: $%s", amount.StringFixed(2), l.user.Balance.StringFixed(2))
	return nil
}

// Withdraw removes cash. The amount must be positive and covered by the balance.
func (l *Ledger) Withdraw(ctx context.Context, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !amount.IsPositive() || amount.GreaterThan(l.user.Balance) {
		return fmt.Errorf("%w: requested $%s, available $%s",
			ErrInsufficientBalance, amount.StringFixed(2), l.user.Balance.StringFixed(2))
	}

	balance := valuation.RoundCents(l.user.Balance.Sub(amount))
	if err := l.commitLocked(ctx, models.UserUpdate{Balance: &balance}); err != nil {
		return err
	}
	log.Printf("[LEDGER] Withdraw $%s | Balance: $%s", amount.StringFixed(2), l.user.Balance.StringFixed(2))
	return nil
}

// Buy adds quantity shares at the quote price. A held ticker is merged at
// the weighted average purchase price; a new ticker needs a free slot.
func (l *Ledger) Buy(ctx context.Context, quantity int64, q models.Quote) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	ticker, err := checkQuote(q)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	qty := decimal.NewFromInt(quantity)
	// Costs round up and proceeds round down, so splitting a trade into
	// small lots can never gain cash.
	totalCost := valuation.DebitCents(q.Price.Mul(qty))
	if totalCost.GreaterThan(l.user.Balance) {
		return fmt.Errorf("%w: required $%s, available $%s",
			ErrInsufficientBalance, totalCost.StringFixed(2), l.user.Balance.StringFixed(2))
	}

	portfolio := l.user.Clone().Portfolio
	if i := indexOf(portfolio, ticker); i >= 0 {
		p := &portfolio[i]
		heldCost := valuation.RoundCents(p.PurchasePrice.Mul(decimal.NewFromInt(p.Quantity)))
		newQty := p.Quantity + quantity
		p.PurchasePrice = valuation.RoundCents(heldCost.Add(totalCost).Div(decimal.NewFromInt(newQty)))
		p.Quantity = newQty
		p.Price = q.Price
		p.LastUpdated = q.AsOf
		if q.Name != "" {
			p.Name = q.Name
		}
	} else {
		if len(portfolio) >= MaxPositions {
			return fmt.Errorf("%w: already holding %d tickers", ErrPortfolioFull, len(portfolio))
		}
		portfolio = append(portfolio, models.Position{
			Ticker:        ticker,
			Name:          q.Name,
			Price:         q.Price,
			PurchasePrice: q.Price,
			Quantity:      quantity,
			LastUpdated:   q.AsOf,
		})
	}

	balance := valuation.RoundCents(l.user.Balance.Sub(totalCost))
	if err := l.commitLocked(ctx, models.UserUpdate{Balance: &balance, Portfolio: &portfolio}); err != nil {
		return err
	}
	log.Printf("[LEDGER] BUY %d %s @ $%s | Cost: $%s | Balance: $%s",
		quantity, ticker, q.Price.StringFixed(2), totalCost.StringFixed(2), l.user.Balance.StringFixed(2))
	return nil
}

// Sell removes quantity shares at the quote price. Selling the whole
// holding removes the position; the average purchase price never changes.
func (l *Ledger) Sell(ctx context.Context, quantity int64, q models.Quote) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	ticker, err := checkQuote(q)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	portfolio := l.user.Clone().Portfolio
	i := indexOf(portfolio, ticker)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPositionNotFound, ticker)
	}
	held := portfolio[i].Quantity
	if quantity > held {
		return fmt.Errorf("%w: selling %d %s, holding %d", ErrInsufficientQuantity, quantity, ticker, held)
	}

	proceeds := valuation.CreditCents(q.Price.Mul(decimal.NewFromInt(quantity)))
	if quantity == held {
		portfolio = append(portfolio[:i], portfolio[i+1:]...)
	} else {
		portfolio[i].Quantity = held - quantity
	}

	balance := valuation.RoundCents(l.user.Balance.Add(proceeds))
	if err := l.commitLocked(ctx, models.UserUpdate{Balance: &balance, Portfolio: &portfolio}); err != nil {
		return err
	}
	log.Printf("[LEDGER] SELL %d %s @ $%s | Proceeds: $%s | Balance: $%s",
		quantity, ticker, q.Price.StringFixed(2), proceeds.StringFixed(2), l.user.Balance.StringFixed(2))
	return nil
}

func checkQuote(q models.Quote) (string, error) {
	ticker := models.NormalizeTicker(q.Ticker)
	if ticker == "" {
		return "", fmt.Errorf("%w: missing ticker", ErrInvalidQuote)
	}
	if !q.Price.IsPositive() {
		return "", fmt.Errorf("%w: non-positive price %s for %s", ErrInvalidQuote, q.Price, ticker)
	}
	return ticker, nil
}

func indexOf(portfolio []models.Position, ticker string) int {
	for i, p := range portfolio {
		if p.Ticker == ticker {
			return i
		}
	}
	return -1
}
