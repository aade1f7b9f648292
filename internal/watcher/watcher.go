// Package watcher is the chat surface: it turns Telegram commands and button
// presses into ledger operations and runs the scheduled price refresh.
package watcher

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"paper_trading/internal/config"
	"paper_trading/internal/ledger"
	"paper_trading/internal/market"
	"paper_trading/internal/telegram"
)

// Notifier delivers messages to the operator.
type Notifier interface {
	Notify(text string)
	SendInteractiveMessage(text string, buttons []telegram.Button)
}

type Watcher struct {
	ledger   *ledger.Ledger
	provider market.MarketProvider
	notifier Notifier
	config   *config.Config
	now      func() time.Time

	mu               sync.Mutex
	commands         []CommandDoc
	pendingProposals map[string]PendingProposal
}

func New(cfg *config.Config, l *ledger.Ledger, provider market.MarketProvider, notifier Notifier) *Watcher {
	now := time.Now
	if cfg.Location != nil {
		loc := cfg.Location
		now = func() time.Time { return time.Now().In(loc) }
	}

	return &Watcher{
		ledger:           l,
		provider:         provider,
		notifier:         notifier,
		config:           cfg,
		now:              now,
		pendingProposals: make(map[string]PendingProposal),
		commands:         defaultCommands(),
	}
}

// Poll runs one scheduled refresh and reports problems in a single message.
func (w *Watcher) Poll(ctx context.Context) ledger.RefreshReport {
	report, err := w.ledger.RefreshPrices(ctx)
	if err != nil {
		log.Printf("[REFRESH] Failed to persist refreshed prices: %v", err)
		w.notifier.Notify(fmt.Sprintf("❌ Price refresh failed: %v", err))
		return report
	}
	if len(report.Warnings) > 0 {
		w.notifier.Notify(formatWarnings(report.Warnings))
	}
	return report
}

func (w *Watcher) SendStartupNotification(version string) {
	u := w.ledger.Snapshot()
	w.notifier.Notify(fmt.Sprintf("🚀 *SYSTEM START: Paper Trader %s online*\nBalance: $%s | Positions: %d/%d",
		version, u.Balance.StringFixed(2), len(u.Portfolio), ledger.MaxPositions))
}

func (w *Watcher) SendShutdownNotification() {
	w.notifier.Notify("🛑 SYSTEM SHUTDOWN: Signal received.")
}

func formatWarnings(warnings []ledger.Warning) string {
	var sb strings.Builder
	sb.WriteString("⚠️ *REFRESH WARNINGS*\n")
	for _, wr := range warnings {
		sb.WriteString(fmt.Sprintf("• %s: %s\n", wr.Ticker, wr.Reason))
	}
	return sb.String()
}
