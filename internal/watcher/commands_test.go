package watcher

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"paper_trading/internal/config"
	"paper_trading/internal/ledger"
	"paper_trading/internal/models"
	"paper_trading/internal/storage"
	"paper_trading/internal/telegram"

	"github.com/shopspring/decimal"
)

// MockProvider implements MarketProvider for testing
type MockProvider struct {
	prices  map[string]decimal.Decimal
	assets  map[string]models.Asset
	news    map[string][]models.NewsItem
	history map[string][]models.Bar
	calls   int
}

func (m *MockProvider) GetPrice(ticker string) (*models.PriceResult, error) {
	m.calls++
	if p, ok := m.prices[ticker]; ok {
		return &models.PriceResult{Ticker: ticker, Status: models.StatusOK, Results: []models.Bar{{Open: p}}}, nil
	}
	return nil, fmt.Errorf("price not found for %s", ticker)
}

func (m *MockProvider) GetInfo(ticker string) (*models.Asset, error) {
	if a, ok := m.assets[ticker]; ok {
		return &a, nil
	}
	return nil, fmt.Errorf("asset not found")
}

func (m *MockProvider) GetNews(ticker string) ([]models.NewsItem, error) {
	return m.news[ticker], nil
}

func (m *MockProvider) GetHistory(ticker string) ([]models.Bar, error) {
	if bars, ok := m.history[ticker]; ok {
		return bars, nil
	}
	return nil, fmt.Errorf("history not found")
}

// spyNotifier records outbound messages instead of calling Telegram.
type spyNotifier struct {
	messages    []string
	interactive []string
	buttons     [][]telegram.Button
}

func (s *spyNotifier) Notify(text string) { s.messages = append(s.messages, text) }

func (s *spyNotifier) SendInteractiveMessage(text string, buttons []telegram.Button) {
	s.interactive = append(s.interactive, text)
	s.buttons = append(s.buttons, buttons)
}

var testNow = time.Date(2024, 4, 18, 15, 0, 0, 0, time.UTC)

func newTestWatcher(t *testing.T, u models.User, provider *MockProvider) (*Watcher, *spyNotifier) {
	t.Helper()

	now := func() time.Time { return testNow }
	l := ledger.New(storage.NewMemoryStoreWith(u), provider, ledger.WithClock(now))
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("load ledger: %v", err)
	}

	spy := &spyNotifier{}
	w := New(&config.Config{ConfirmationTTLSec: 300}, l, provider, spy)
	w.now = now
	return w, spy
}

func fundedUser(balance string) models.User {
	u := storage.DefaultUser()
	u.Balance = decimal.RequireFromString(balance)
	return u
}

func TestHandleCommand_Basics(t *testing.T) {
	w, _ := newTestWatcher(t, fundedUser("1250.5"), &MockProvider{})
	ctx := context.Background()

	if got := w.HandleCommand(ctx, "/ping"); got != "Pong 🏓" {
		t.Errorf("Expected pong, got %q", got)
	}
	if got := w.HandleCommand(ctx, "/balance"); !strings.Contains(got, "$1250.50") {
		t.Errorf("Expected balance in reply, got %q", got)
	}
	if got := w.HandleCommand(ctx, "/help"); !strings.Contains(got, "/buy <ticker> <qty>") {
		t.Errorf("Expected help to list /buy, got %q", got)
	}
	if got := w.HandleCommand(ctx, "/bogus"); !strings.Contains(got, "Unknown command") {
		t.Errorf("Expected unknown command reply, got %q", got)
	}
	if got := w.HandleCommand(ctx, "   "); got != "" {
		t.Errorf("Expected empty reply for blank input, got %q", got)
	}
}

func TestHandleCommand_DepositWithdraw(t *testing.T) {
	w, _ := newTestWatcher(t, fundedUser("100"), &MockProvider{})
	ctx := context.Background()

	if got := w.HandleCommand(ctx, "/deposit 50.25"); !strings.Contains(got, "$150.25") {
		t.Errorf("Expected new balance after deposit, got %q", got)
	}
	if got := w.HandleCommand(ctx, "/deposit -10"); !strings.Contains(got, "Nothing deposited") {
		t.Errorf("Expected no-op deposit reply, got %q", got)
	}
	if got := w.HandleCommand(ctx, "/deposit abc"); !strings.Contains(got, "Invalid amount") {
		t.Errorf("Expected invalid amount reply, got %q", got)
	}
	if got := w.HandleCommand(ctx, "/withdraw 500"); !strings.Contains(got, "Insufficient Balance") {
		t.Errorf("Expected insufficient balance reply, got %q", got)
	}
	if got := w.HandleCommand(ctx, "/withdraw 0.25"); !strings.Contains(got, "$150.00") {
		t.Errorf("Expected balance after withdraw, got %q", got)
	}

	if !w.ledger.Balance().Equal(decimal.NewFromInt(150)) {
		t.Errorf("Expected ledger balance 150, got %s", w.ledger.Balance())
	}
}

func TestHandleCommand_Buy(t *testing.T) {
	mockProvider := &MockProvider{
		prices: map[string]decimal.Decimal{"AAPL": decimal.NewFromFloat(150.00)},
		assets: map[string]models.Asset{"AAPL": {Symbol: "AAPL", Name: "Apple Inc."}},
	}
	w, spy := newTestWatcher(t, fundedUser("1000"), mockProvider)

	// Lower-case input is normalized.
	if got := w.HandleCommand(context.Background(), "/buy aapl 2"); got != "" {
		t.Errorf("Expected interactive reply, got %q", got)
	}

	w.mu.Lock()
	prop, exists := w.pendingProposals["BUY_AAPL"]
	w.mu.Unlock()

	if !exists {
		t.Fatal("Expected pending proposal for AAPL, found none")
	}
	if prop.Qty != 2 {
		t.Errorf("Expected Qty 2, got %d", prop.Qty)
	}
	if !prop.Total.Equal(decimal.NewFromInt(300)) {
		t.Errorf("Expected total 300, got %s", prop.Total)
	}
	if prop.Quote.Name != "Apple Inc." || prop.Quote.AsOf != "2024-04-18" {
		t.Errorf("Unexpected quote captured: %+v", prop.Quote)
	}

	if len(spy.buttons) != 1 || spy.buttons[0][0].CallbackData != "EXECUTE_BUY_AAPL" {
		t.Fatalf("Expected EXECUTE_BUY_AAPL button, got %+v", spy.buttons)
	}
	if spy.buttons[0][1].CallbackData != "CANCEL_BUY_AAPL" {
		t.Errorf("Expected CANCEL_BUY_AAPL button, got %+v", spy.buttons[0][1])
	}

	// Nothing moves until confirmation.
	if !w.ledger.Balance().Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Balance changed before confirmation: %s", w.ledger.Balance())
	}
}

func TestHandleCommand_BuyRejections(t *testing.T) {
	mockProvider := &MockProvider{
		prices: map[string]decimal.Decimal{"AAPL": decimal.NewFromFloat(150.00)},
	}
	w, spy := newTestWatcher(t, fundedUser("100"), mockProvider)
	ctx := context.Background()

	cases := map[string]string{
		"/buy AAPL":     "Usage",
		"/buy AAPL 1.5": "Invalid quantity",
		"/buy AAPL 0":   "Invalid quantity",
		"/buy AAPL 1":   "Insufficient Balance",
		"/buy MSFT 1":   "Could not fetch price",
	}
	for cmd, want := range cases {
		if got := w.HandleCommand(ctx, cmd); !strings.Contains(got, want) {
			t.Errorf("%s: expected %q in reply, got %q", cmd, want, got)
		}
	}
	if len(spy.interactive) != 0 {
		t.Errorf("Expected no proposals, got %d", len(spy.interactive))
	}
}

func TestHandleCommand_SellChecksHolding(t *testing.T) {
	u := fundedUser("0")
	u.Portfolio = []models.Position{{
		Ticker: "MCK", Name: "McKesson", Quantity: 3,
		Price: decimal.NewFromInt(500), PurchasePrice: decimal.NewFromInt(450), LastUpdated: "2024-04-18",
	}}
	mockProvider := &MockProvider{prices: map[string]decimal.Decimal{"MCK": decimal.NewFromInt(520)}}
	w, spy := newTestWatcher(t, u, mockProvider)
	ctx := context.Background()

	if got := w.HandleCommand(ctx, "/sell TSLA 1"); !strings.Contains(got, "No position") {
		t.Errorf("Expected missing position reply, got %q", got)
	}
	if got := w.HandleCommand(ctx, "/sell MCK 4"); !strings.Contains(got, "holding 3") {
		t.Errorf("Expected insufficient quantity reply, got %q", got)
	}
	if mockProvider.calls != 0 {
		t.Errorf("Expected no price lookups for rejected sells, got %d", mockProvider.calls)
	}

	w.HandleCommand(ctx, "/sell MCK 3")
	if len(spy.buttons) != 1 || spy.buttons[0][0].CallbackData != "EXECUTE_SELL_MCK" {
		t.Fatalf("Expected sell proposal, got %+v", spy.buttons)
	}
}

func TestHandleCommand_Views(t *testing.T) {
	u := fundedUser("500")
	u.Portfolio = []models.Position{{
		Ticker: "MCK", Name: "McKesson", Quantity: 2,
		Price: decimal.NewFromInt(600), PurchasePrice: decimal.NewFromInt(500), LastUpdated: "2024-04-18",
	}}
	mockProvider := &MockProvider{
		prices: map[string]decimal.Decimal{"MCK": decimal.NewFromInt(600)},
		assets: map[string]models.Asset{"MCK": {Symbol: "MCK", Name: "McKesson", Exchange: "NYSE", Tradable: true}},
		news: map[string][]models.NewsItem{"MCK": {
			{Title: "McKesson beats estimates", URL: "https://example.com/a", PublishedAt: testNow},
		}},
		history: map[string][]models.Bar{"MCK": {
			{Time: testNow.AddDate(0, 0, -2), Close: decimal.NewFromInt(100), High: decimal.NewFromInt(105), Low: decimal.NewFromInt(95)},
			{Time: testNow, Close: decimal.NewFromInt(110), High: decimal.NewFromInt(112), Low: decimal.NewFromInt(99)},
		}},
	}
	w, _ := newTestWatcher(t, u, mockProvider)
	ctx := context.Background()

	checks := map[string][]string{
		"/portfolio":     {"MCK", "Invested: $1000.00", "Value: $1200.00", "20.00%", "Balance: $500.00"},
		"/position mck":  {"McKesson", "Avg Cost: $500.00", "Return: 🟢20.00%"},
		"/position TSLA": {"No position in TSLA"},
		"/price mck":     {"$600.00", "2024-04-18"},
		"/info MCK":      {"NYSE", "Tradable: Yes"},
		"/news MCK":      {"McKesson beats estimates"},
		"/news TSLA":     {"No recent news"},
		"/history MCK":   {"$100.00 → $110.00", "10.00%", "High: $112.00", "Low: $95.00"},
		"/history TSLA":  {"Could not fetch history"},
	}
	for cmd, wants := range checks {
		got := w.HandleCommand(ctx, cmd)
		for _, want := range wants {
			if !strings.Contains(got, want) {
				t.Errorf("%s: expected %q in reply, got %q", cmd, want, got)
			}
		}
	}
}

func TestHandleCommand_Refresh(t *testing.T) {
	u := fundedUser("0")
	u.Portfolio = []models.Position{
		{Ticker: "AAA", Quantity: 1, Price: decimal.NewFromInt(10), PurchasePrice: decimal.NewFromInt(10), LastUpdated: "2024-04-17"},
		{Ticker: "BBB", Quantity: 1, Price: decimal.NewFromInt(20), PurchasePrice: decimal.NewFromInt(20), LastUpdated: "2024-04-17"},
	}
	mockProvider := &MockProvider{prices: map[string]decimal.Decimal{"AAA": decimal.NewFromInt(11)}}
	w, spy := newTestWatcher(t, u, mockProvider)
	ctx := context.Background()

	if got := w.HandleCommand(ctx, "/refresh now"); !strings.Contains(got, "does not accept parameters") {
		t.Errorf("Expected parameter rejection, got %q", got)
	}

	got := w.HandleCommand(ctx, "/refresh")
	if !strings.Contains(got, "1/2") {
		t.Errorf("Expected 1/2 updated, got %q", got)
	}
	if len(spy.messages) != 1 || !strings.Contains(spy.messages[0], "BBB") {
		t.Errorf("Expected one warning notification naming BBB, got %v", spy.messages)
	}

	// Second run: AAA is current, BBB still stale.
	mockProvider.calls = 0
	w.HandleCommand(ctx, "/refresh")
	if mockProvider.calls != 1 {
		t.Errorf("Expected only the stale ticker to be fetched, got %d calls", mockProvider.calls)
	}
}

func TestPoll_QuietWhenNothingStale(t *testing.T) {
	w, spy := newTestWatcher(t, fundedUser("10"), &MockProvider{})

	report := w.Poll(context.Background())
	if report.Checked != 0 {
		t.Errorf("Expected nothing checked, got %d", report.Checked)
	}
	if len(spy.messages) != 0 {
		t.Errorf("Expected no notifications, got %v", spy.messages)
	}
}
