package watcher

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"paper_trading/internal/models"

	"github.com/shopspring/decimal"
)

const (
	sideBuy  = "BUY"
	sideSell = "SELL"
)

// PendingProposal is a quoted trade awaiting confirmation.
type PendingProposal struct {
	Side      string
	Ticker    string
	Qty       int64
	Quote     models.Quote
	Total     decimal.Decimal
	Timestamp time.Time
}

func proposalKey(side, ticker string) string {
	return side + "_" + ticker
}

// HandleCallback processes button clicks from Telegram.
// Data is EXECUTE_<SIDE>_<TICKER> or CANCEL_<SIDE>_<TICKER>.
func (w *Watcher) HandleCallback(ctx context.Context, callbackID, data string) string {
	parts := strings.SplitN(data, "_", 3)
	if len(parts) < 3 {
		return "⚠️ Invalid callback data."
	}
	action, side, ticker := parts[0], parts[1], parts[2]
	if side != sideBuy && side != sideSell {
		return "⚠️ Invalid callback data."
	}

	w.mu.Lock()
	key := proposalKey(side, ticker)
	proposal, exists := w.pendingProposals[key]
	if !exists {
		w.mu.Unlock()
		return fmt.Sprintf("⚠️ Proposal for %s expired or not found.", ticker)
	}
	delete(w.pendingProposals, key)
	w.mu.Unlock()

	switch action {
	case "CANCEL":
		if side == sideBuy {
			return fmt.Sprintf("❌ Purchase of %s cancelled.", ticker)
		}
		return fmt.Sprintf("❌ Sale of %s cancelled.", ticker)
	case "EXECUTE":
	default:
		return "Unknown action."
	}

	ttl := w.config.ConfirmationTTL()
	if w.now().Sub(proposal.Timestamp) > ttl {
		return fmt.Sprintf("⏳ TIMEOUT: Proposal for %s expired (> %ds). Action aborted.", ticker, w.config.ConfirmationTTLSec)
	}

	var err error
	if side == sideBuy {
		err = w.ledger.Buy(ctx, proposal.Qty, proposal.Quote)
	} else {
		err = w.ledger.Sell(ctx, proposal.Qty, proposal.Quote)
	}
	if err != nil {
		log.Printf("[LEDGER] %s %s rejected: %v", side, ticker, err)
		return describeError(err)
	}

	verb := "PURCHASED"
	if side == sideSell {
		verb = "SOLD"
	}
	return fmt.Sprintf("✅ %s: %d %s @ $%s\nTotal: $%s\n💵 Balance: $%s",
		verb, proposal.Qty, ticker, proposal.Quote.Price.StringFixed(2),
		proposal.Total.StringFixed(2), w.ledger.Balance().StringFixed(2))
}
