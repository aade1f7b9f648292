package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusOK marks a PriceResult that carries data.
const StatusOK = "OK"

// PriceResult is the provider answer to a price lookup.
// Results holds the most recent daily bar; its Open is the price we use.
type PriceResult struct {
	Ticker  string `json:"ticker"`
	Status  string `json:"status"`
	Results []Bar  `json:"results"`
}

// Asset represents a tradable instrument.
type Asset struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Class    string `json:"class"` // us_equity, crypto, etc.
	Exchange string `json:"exchange"`
	Status   string `json:"status"` // active, inactive
	Tradable bool   `json:"tradable"`
}

// NewsItem is a single article about a ticker.
type NewsItem struct {
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	URL         string    `json:"article_url"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Bar represents a candlestick for a timeframe.
type Bar struct {
	Time   time.Time       `json:"t"`
	Open   decimal.Decimal `json:"o"`
	High   decimal.Decimal `json:"h"`
	Low    decimal.Decimal `json:"l"`
	Close  decimal.Decimal `json:"c"`
	Volume int64           `json:"v"`
}
