package market

import (
	"errors"
	"fmt"
	"log"
	"time"

	"paper_trading/internal/models"
)

// DateLayout is the calendar-date format used for as-of dates.
const DateLayout = "2006-01-02"

// ErrNoPrice is returned when the provider answered but had no usable price.
var ErrNoPrice = errors.New("no price available")

// PriceProvider is the part of the market data API the ledger needs.
type PriceProvider interface {
	GetPrice(ticker string) (*models.PriceResult, error)
}

// MarketProvider is an Interface.
// Any struct that implements these methods satisfies it, which lets us swap
// Alpaca for another vendor, or a mock for testing, without changing callers.
// Tickers are expected upper-case.
type MarketProvider interface {
	PriceProvider
	GetInfo(ticker string) (*models.Asset, error)
	GetNews(ticker string) ([]models.NewsItem, error)
	GetHistory(ticker string) ([]models.Bar, error)
}

// LastPrice extracts the usable price from a provider answer.
func LastPrice(res *models.PriceResult) (models.Bar, error) {
	if res == nil || res.Status != models.StatusOK || len(res.Results) == 0 {
		return models.Bar{}, ErrNoPrice
	}
	bar := res.Results[0]
	if !bar.Open.IsPositive() {
		return models.Bar{}, fmt.Errorf("%w: non-positive price %s", ErrNoPrice, bar.Open)
	}
	return bar, nil
}

// FetchQuote assembles a trade quote from the latest price and the issuer
// name. A failed info lookup falls back to the ticker as display name.
func FetchQuote(p MarketProvider, ticker string, now time.Time) (models.Quote, error) {
	ticker = models.NormalizeTicker(ticker)

	res, err := p.GetPrice(ticker)
	if err != nil {
		return models.Quote{}, fmt.Errorf("price lookup for %s: %w", ticker, err)
	}
	bar, err := LastPrice(res)
	if err != nil {
		return models.Quote{}, fmt.Errorf("%s: %w", ticker, err)
	}

	name := ticker
	info, err := p.GetInfo(ticker)
	if err != nil {
		log.Printf("Warning: info lookup failed for %s: %v", ticker, err)
	} else if info != nil && info.Name != "" {
		name = info.Name
	}

	return models.Quote{
		Ticker: ticker,
		Name:   name,
		Price:  bar.Open,
		AsOf:   now.Format(DateLayout),
	}, nil
}
