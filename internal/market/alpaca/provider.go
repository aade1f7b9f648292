package alpaca

import (
	"fmt"
	"time"

	"paper_trading/internal/market"
	"paper_trading/internal/models"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

const (
	// priceLookback covers weekends and holidays when asking for the last daily bar.
	priceLookback = 7 * 24 * time.Hour
	newsLimit     = 10
)

// Provider implements the generic MarketProvider interface for Alpaca.
type Provider struct {
	mdClient    *marketdata.Client
	tradeClient *alpaca.Client
	feed        string
}

// Ensure Provider implements the interface
var _ market.MarketProvider = (*Provider)(nil)

// NewProvider returns a new Alpaca provider. Credentials are read by the SDK
// from APCA_API_KEY_ID / APCA_API_SECRET_KEY. feed selects the bar feed
// ("iex" works on free accounts).
func NewProvider(feed string) *Provider {
	return &Provider{
		mdClient:    marketdata.NewClient(marketdata.ClientOpts{}),
		tradeClient: alpaca.NewClient(alpaca.ClientOpts{}),
		feed:        feed,
	}
}

// GetPrice returns the most recent daily bar. Its open is the price the
// ledger trades and values at.
func (p *Provider) GetPrice(ticker string) (*models.PriceResult, error) {
	bars, err := p.mdClient.GetBars(ticker, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     time.Now().Add(-priceLookback),
		Feed:      marketdata.Feed(p.feed),
	})
	if err != nil {
		return nil, err
	}

	res := &models.PriceResult{Ticker: ticker, Status: "NOT_FOUND"}
	if len(bars) == 0 {
		return res, nil
	}

	res.Status = models.StatusOK
	res.Results = []models.Bar{mapBar(bars[len(bars)-1])}
	return res, nil
}

func (p *Provider) GetInfo(ticker string) (*models.Asset, error) {
	a, err := p.tradeClient.GetAsset(ticker)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("no asset found for %s", ticker)
	}
	return &models.Asset{
		ID:       a.ID,
		Symbol:   a.Symbol,
		Name:     a.Name,
		Class:    string(a.Class),
		Exchange: a.Exchange,
		Status:   string(a.Status),
		Tradable: a.Tradable,
	}, nil
}

func (p *Provider) GetNews(ticker string) ([]models.NewsItem, error) {
	news, err := p.mdClient.GetNews(marketdata.GetNewsRequest{
		Symbols:    []string{ticker},
		TotalLimit: newsLimit,
	})
	if err != nil {
		return nil, err
	}

	result := make([]models.NewsItem, 0, len(news))
	for _, n := range news {
		result = append(result, models.NewsItem{
			Title:       n.Headline,
			Author:      n.Author,
			URL:         n.URL,
			Summary:     n.Summary,
			PublishedAt: n.CreatedAt,
		})
	}
	return result, nil
}

// GetHistory returns daily bars over the trailing month.
func (p *Provider) GetHistory(ticker string) ([]models.Bar, error) {
	bars, err := p.mdClient.GetBars(ticker, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     time.Now().AddDate(0, -1, 0),
		Feed:      marketdata.Feed(p.feed),
	})
	if err != nil {
		return nil, err
	}

	result := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		result = append(result, mapBar(b))
	}
	return result, nil
}

func mapBar(b marketdata.Bar) models.Bar {
	return models.Bar{
		Time:   b.Timestamp,
		Open:   decimal.NewFromFloat(b.Open),
		High:   decimal.NewFromFloat(b.High),
		Low:    decimal.NewFromFloat(b.Low),
		Close:  decimal.NewFromFloat(b.Close),
		Volume: int64(b.Volume),
	}
}
