package watcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"paper_trading/internal/ledger"
	"paper_trading/internal/market"
	"paper_trading/internal/models"
	"paper_trading/internal/telegram"
	"paper_trading/internal/valuation"

	"github.com/shopspring/decimal"
)

type CommandDoc struct {
	Name        string
	Description string
	Example     string
}

func defaultCommands() []CommandDoc {
	return []CommandDoc{
		{"/ping", "Connectivity check", "/ping"},
		{"/balance", "Available cash", "/balance"},
		{"/deposit", "Add cash", "/deposit <amount>"},
		{"/withdraw", "Remove cash", "/withdraw <amount>"},
		{"/portfolio", "Dashboard with every holding", "/portfolio"},
		{"/position", "One holding in detail", "/position <ticker>"},
		{"/price", "Latest price", "/price <ticker>"},
		{"/info", "Asset details", "/info <ticker>"},
		{"/news", "Recent headlines", "/news <ticker>"},
		{"/history", "One month of daily closes", "/history <ticker>"},
		{"/buy", "Propose a purchase", "/buy <ticker> <qty>"},
		{"/sell", "Propose a sale", "/sell <ticker> <qty>"},
		{"/refresh", "Reprice positions not updated today", "/refresh"},
	}
}

// HandleCommand processes inbound Telegram commands.
func (w *Watcher) HandleCommand(ctx context.Context, cmd string) string {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return ""
	}

	switch strings.ToLower(parts[0]) {
	case "/ping":
		return "Pong 🏓"
	case "/help", "/start":
		return w.getHelp()
	case "/balance":
		return fmt.Sprintf("💵 Balance: $%s", w.ledger.Balance().StringFixed(2))
	case "/deposit":
		return w.handleCashCommand(ctx, parts, true)
	case "/withdraw":
		return w.handleCashCommand(ctx, parts, false)
	case "/portfolio", "/status":
		return formatDashboard(w.ledger.Snapshot())
	case "/position":
		if len(parts) < 2 {
			return "Usage: /position <ticker>"
		}
		return w.getPosition(parts[1])
	case "/price":
		if len(parts) < 2 {
			return "Usage: /price <ticker>"
		}
		return w.getPrice(parts[1])
	case "/info":
		if len(parts) < 2 {
			return "Usage: /info <ticker>"
		}
		return w.getInfo(parts[1])
	case "/news":
		if len(parts) < 2 {
			return "Usage: /news <ticker>"
		}
		return w.getNews(parts[1])
	case "/history":
		if len(parts) < 2 {
			return "Usage: /history <ticker>"
		}
		return w.getHistory(parts[1])
	case "/buy":
		return w.handleTradeCommand(parts, sideBuy)
	case "/sell":
		return w.handleTradeCommand(parts, sideSell)
	case "/refresh":
		if len(parts) > 1 {
			return "⚠️ Error: /refresh does not accept parameters."
		}
		return w.handleRefreshCommand(ctx)
	default:
		return "Unknown command. Try /help."
	}
}

func (w *Watcher) getHelp() string {
	var sb strings.Builder
	sb.WriteString("🤖 *PAPER TRADER COMMANDS*\n\n")
	for _, cmd := range w.commands {
		sb.WriteString(fmt.Sprintf("🔹 *%s*\n%s\n`%s`\n\n", cmd.Name, cmd.Description, cmd.Example))
	}
	return sb.String()
}

func (w *Watcher) handleCashCommand(ctx context.Context, parts []string, deposit bool) string {
	if len(parts) < 2 {
		return fmt.Sprintf("Usage: %s <amount>", parts[0])
	}
	amount, err := decimal.NewFromString(parts[1])
	if err != nil {
		return "⚠️ Invalid amount format."
	}

	if deposit {
		if !amount.IsPositive() {
			return "ℹ️ Nothing deposited: amount must be positive."
		}
		err = w.ledger.Deposit(ctx, amount)
	} else {
		err = w.ledger.Withdraw(ctx, amount)
	}
	if err != nil {
		return describeError(err)
	}

	verb := "Deposited"
	if !deposit {
		verb = "Withdrew"
	}
	return fmt.Sprintf("✅ %s $%s\n💵 Balance: $%s", verb, amount.StringFixed(2), w.ledger.Balance().StringFixed(2))
}

func (w *Watcher) getPosition(ticker string) string {
	p, ok := w.ledger.PositionByTicker(ticker)
	if !ok {
		return fmt.Sprintf("ℹ️ No position in %s.", models.NormalizeTicker(ticker))
	}
	return formatPosition(p)
}

func (w *Watcher) getPrice(ticker string) string {
	q, err := market.FetchQuote(w.provider, ticker, w.now())
	if err != nil {
		log.Printf("Error fetching price for %s: %v", ticker, err)
		return fmt.Sprintf("⚠️ Could not fetch price for %s.", models.NormalizeTicker(ticker))
	}
	return fmt.Sprintf("💲 *%s* (%s): $%s\nAs of %s", q.Ticker, q.Name, q.Price.StringFixed(2), q.AsOf)
}

func (w *Watcher) getInfo(ticker string) string {
	ticker = models.NormalizeTicker(ticker)
	a, err := w.provider.GetInfo(ticker)
	if err != nil {
		log.Printf("Error fetching info for %s: %v", ticker, err)
		return fmt.Sprintf("⚠️ Could not fetch info for %s.", ticker)
	}
	return formatAsset(a)
}

func (w *Watcher) getNews(ticker string) string {
	ticker = models.NormalizeTicker(ticker)
	items, err := w.provider.GetNews(ticker)
	if err != nil {
		log.Printf("Error fetching news for %s: %v", ticker, err)
		return fmt.Sprintf("⚠️ Could not fetch news for %s.", ticker)
	}
	return formatNews(ticker, items)
}

func (w *Watcher) getHistory(ticker string) string {
	ticker = models.NormalizeTicker(ticker)
	bars, err := w.provider.GetHistory(ticker)
	if err != nil {
		log.Printf("Error fetching history for %s: %v", ticker, err)
		return fmt.Sprintf("⚠️ Could not fetch history for %s.", ticker)
	}
	return formatHistory(ticker, bars)
}

// handleTradeCommand quotes the trade and asks for confirmation.
// /buy AAPL 2
func (w *Watcher) handleTradeCommand(parts []string, side string) string {
	if len(parts) < 3 {
		return fmt.Sprintf("Usage: %s <ticker> <qty>", parts[0])
	}

	ticker := models.NormalizeTicker(parts[1])
	qty, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || qty <= 0 {
		return "⚠️ Invalid quantity: use a positive whole number."
	}

	// Fail early on what the ledger would reject anyway.
	if side == sideSell {
		p, ok := w.ledger.PositionByTicker(ticker)
		if !ok {
			return fmt.Sprintf("ℹ️ No position in %s.", ticker)
		}
		if qty > p.Quantity {
			return fmt.Sprintf("❌ Insufficient quantity: holding %d %s.", p.Quantity, ticker)
		}
	}

	q, err := market.FetchQuote(w.provider, ticker, w.now())
	if err != nil {
		log.Printf("Error quoting %s: %v", ticker, err)
		return fmt.Sprintf("⚠️ Could not fetch price for %s.", ticker)
	}

	total := valuation.CreditCents(q.Price.Mul(decimal.NewFromInt(qty)))
	if side == sideBuy {
		total = valuation.DebitCents(q.Price.Mul(decimal.NewFromInt(qty)))
		if balance := w.ledger.Balance(); total.GreaterThan(balance) {
			return fmt.Sprintf("❌ Insufficient Balance.\nRequired: $%s\nAvailable: $%s",
				total.StringFixed(2), balance.StringFixed(2))
		}
	}

	w.mu.Lock()
	w.pendingProposals[proposalKey(side, ticker)] = PendingProposal{
		Side:      side,
		Ticker:    ticker,
		Qty:       qty,
		Quote:     q,
		Total:     total,
		Timestamp: w.now(),
	}
	w.mu.Unlock()

	msg := fmt.Sprintf("📝 *TRADE PROPOSAL: %s*\n"+
		"Asset: %s (%s)\n"+
		"Qty: %d\n"+
		"Price: $%s\n"+
		"Total: $%s\n"+
		"Confirm Execution?\n\n"+
		"⏱️ Valid for %d seconds.",
		side, ticker, q.Name, qty, q.Price.StringFixed(2), total.StringFixed(2), w.config.ConfirmationTTLSec)

	buttons := []telegram.Button{
		{Text: "✅ EXECUTE", CallbackData: fmt.Sprintf("EXECUTE_%s_%s", side, ticker)},
		{Text: "❌ CANCEL", CallbackData: fmt.Sprintf("CANCEL_%s_%s", side, ticker)},
	}

	w.notifier.SendInteractiveMessage(msg, buttons)
	return "" // Message sent interactively
}

func (w *Watcher) handleRefreshCommand(ctx context.Context) string {
	report := w.Poll(ctx)
	if report.Checked == 0 {
		return "✅ All positions already priced today."
	}
	return fmt.Sprintf("🔄 Refresh complete: %d/%d stale positions updated.", len(report.Updated), report.Checked)
}

// describeError renders a ledger error for the chat.
func describeError(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return fmt.Sprintf("❌ Insufficient Balance: %v", err)
	case errors.Is(err, ledger.ErrPortfolioFull):
		return fmt.Sprintf("❌ Portfolio full: at most %d tickers can be held.", ledger.MaxPositions)
	case errors.Is(err, ledger.ErrPositionNotFound):
		return fmt.Sprintf("ℹ️ %v", err)
	case errors.Is(err, ledger.ErrInsufficientQuantity):
		return fmt.Sprintf("❌ Insufficient quantity: %v", err)
	case errors.Is(err, ledger.ErrInvalidQuantity), errors.Is(err, ledger.ErrInvalidQuote):
		return fmt.Sprintf("⚠️ %v", err)
	default:
		log.Printf("[FATAL_TRADE_ERROR] %v", err)
		return fmt.Sprintf("🚨 Critical: %v", err)
	}
}
