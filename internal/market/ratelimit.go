package market

import (
	"context"
	"log"
	"time"

	"paper_trading/internal/models"

	"golang.org/x/time/rate"
)

// NewRateLimit spreads actions evenly over interval with a burst of one.
// Non-positive values disable limiting.
func NewRateLimit(interval time.Duration, actions int) *rate.Limiter {
	if actions <= 0 || interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	rps := float64(actions) / interval.Seconds()
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Throttled wraps a MarketProvider so every call waits for the limiter.
type Throttled struct {
	inner   MarketProvider
	limiter *rate.Limiter
}

var _ MarketProvider = (*Throttled)(nil)

// NewThrottled limits inner to perMinute calls a minute.
func NewThrottled(inner MarketProvider, perMinute int) *Throttled {
	return &Throttled{inner: inner, limiter: NewRateLimit(time.Minute, perMinute)}
}

// wait blocks until the limiter admits a call. Provider calls carry no
// context, so Wait can only fail on a misconfigured limiter; the call then
// goes through unthrottled.
func (t *Throttled) wait() {
	if err := t.limiter.Wait(context.Background()); err != nil {
		log.Printf("[MARKET] rate limiter: %v", err)
	}
}

func (t *Throttled) GetPrice(ticker string) (*models.PriceResult, error) {
	t.wait()
	return t.inner.GetPrice(ticker)
}

func (t *Throttled) GetInfo(ticker string) (*models.Asset, error) {
	t.wait()
	return t.inner.GetInfo(ticker)
}

func (t *Throttled) GetNews(ticker string) ([]models.NewsItem, error) {
	t.wait()
	return t.inner.GetNews(ticker)
}

func (t *Throttled) GetHistory(ticker string) ([]models.Bar, error) {
	t.wait()
	return t.inner.GetHistory(ticker)
}
