package ledger

import (
	"context"
	"log"
	"time"

	"paper_trading/internal/market"
	"paper_trading/internal/models"

	"github.com/shopspring/decimal"
)

// Warning is a recoverable refresh problem. The position it names was left as is.
type Warning struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// RefreshReport describes one RefreshPrices run.
type RefreshReport struct {
	Checked  int       `json:"checked"` // stale positions a price was requested for
	Updated  []string  `json:"updated"`
	Warnings []Warning `json:"warnings"`
}

// RefreshPrices fetches a new price for every position last priced before
// today. Fetches run one at a time with the lock released; a failure on one
// ticker becomes a Warning and the loop moves on. The portfolio is written
// once, and only if at least one position changed.
func (l *Ledger) RefreshPrices(ctx context.Context) (RefreshReport, error) {
	report := RefreshReport{Updated: []string{}, Warnings: []Warning{}}

	l.mu.Lock()
	today := l.today()
	var stale []string
	for _, p := range l.user.Portfolio {
		if isStale(p.LastUpdated, today) {
			stale = append(stale, p.Ticker)
		}
	}
	l.mu.Unlock()

	if len(stale) == 0 {
		return report, nil
	}

	fetched := make(map[string]decimal.Decimal, len(stale))
	for _, ticker := range stale {
		report.Checked++

		res, err := l.prices.GetPrice(ticker)
		if err != nil {
			log.Printf("[REFRESH] %s: price fetch failed: %v", ticker, err)
			report.Warnings = append(report.Warnings, Warning{Ticker: ticker, Reason: err.Error()})
			continue
		}
		bar, err := market.LastPrice(res)
		if err != nil {
			log.Printf("[REFRESH] %s: %v", ticker, err)
			report.Warnings = append(report.Warnings, Warning{Ticker: ticker, Reason: err.Error()})
			continue
		}
		fetched[ticker] = bar.Open
	}

	if len(fetched) == 0 {
		return report, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// A trade may have landed while we were fetching; only touch positions
	// that are still held and still stale.
	portfolio := l.user.Clone().Portfolio
	for i := range portfolio {
		price, ok := fetched[portfolio[i].Ticker]
		if !ok || !isStale(portfolio[i].LastUpdated, today) {
			continue
		}
		portfolio[i].Price = price
		portfolio[i].LastUpdated = today
		report.Updated = append(report.Updated, portfolio[i].Ticker)
	}

	if len(report.Updated) == 0 {
		return report, nil
	}

	if err := l.commitLocked(ctx, models.UserUpdate{Portfolio: &portfolio}); err != nil {
		return report, err
	}
	log.Printf("[REFRESH] Updated %d/%d stale positions", len(report.Updated), report.Checked)
	return report, nil
}

func (l *Ledger) today() string {
	return l.now().Format(market.DateLayout)
}

// isStale reports whether a yyyy-MM-dd date precedes today.
// Unparseable dates count as stale.
func isStale(lastUpdated, today string) bool {
	last, err := time.Parse(market.DateLayout, lastUpdated)
	if err != nil {
		return true
	}
	now, err := time.Parse(market.DateLayout, today)
	if err != nil {
		return false
	}
	return last.Before(now)
}
