package watcher

import (
	"fmt"
	"strings"

	"paper_trading/internal/models"
	"paper_trading/internal/valuation"

	"github.com/shopspring/decimal"
)

const maxHeadlines = 5

func plIcon(d decimal.Decimal) string {
	if d.IsNegative() {
		return "🔴"
	}
	return "🟢"
}

func formatDashboard(u models.User) string {
	s := valuation.Summarize(u)

	var sb strings.Builder
	sb.WriteString("📊 *PORTFOLIO*\n\n")

	if len(s.Holdings) == 0 {
		sb.WriteString("No positions held.\n\n")
	} else {
		sb.WriteString("`Ticker | Qty | Price  | Ret%  | Share`\n")
		sb.WriteString("`------------------------------------`\n")
		for _, h := range s.Holdings {
			sb.WriteString(fmt.Sprintf("`%-6s | %-3d | %-6s | %s%s | %s%%`\n",
				h.Ticker, h.Quantity, h.Price.StringFixed(2),
				plIcon(h.ReturnPct), h.ReturnPct.StringFixed(2), h.SharePct.StringFixed(1)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Invested: $%s\n", s.Invested.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Value: $%s (%s%s%%)\n", s.Value.StringFixed(2), plIcon(s.ReturnPct), s.ReturnPct.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Balance: $%s", s.Balance.StringFixed(2)))
	return sb.String()
}

func formatPosition(p models.Position) string {
	invested := valuation.TotalInvested(p)
	value := valuation.CurrentValue(p)
	ret := valuation.ReturnPercent(value, invested)

	return fmt.Sprintf("📈 *%s* (%s)\n"+
		"Qty: %d\n"+
		"Avg Cost: $%s | Price: $%s\n"+
		"Invested: $%s | Value: $%s\n"+
		"Return: %s%s%%\n"+
		"Priced: %s",
		p.Ticker, p.Name, p.Quantity,
		p.PurchasePrice.StringFixed(2), p.Price.StringFixed(2),
		invested.StringFixed(2), value.StringFixed(2),
		plIcon(ret), ret.StringFixed(2), p.LastUpdated)
}

func formatAsset(a *models.Asset) string {
	tradable := "No"
	if a.Tradable {
		tradable = "Yes"
	}
	return fmt.Sprintf("🏷️ *%s*\n%s\nExchange: %s | Class: %s\nStatus: %s | Tradable: %s",
		a.Symbol, a.Name, a.Exchange, a.Class, a.Status, tradable)
}

func formatNews(ticker string, items []models.NewsItem) string {
	if len(items) == 0 {
		return fmt.Sprintf("📰 No recent news for %s.", ticker)
	}
	if len(items) > maxHeadlines {
		items = items[:maxHeadlines]
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📰 *NEWS: %s*\n", ticker))
	for _, n := range items {
		sb.WriteString(fmt.Sprintf("\n• %s\n  %s | %s\n", n.Title, n.PublishedAt.Format("2006-01-02"), n.URL))
	}
	return sb.String()
}

func formatHistory(ticker string, bars []models.Bar) string {
	if len(bars) == 0 {
		return fmt.Sprintf("📉 No history for %s.", ticker)
	}

	first, last := bars[0], bars[len(bars)-1]
	high, low := first.High, first.Low
	for _, b := range bars[1:] {
		high = decimal.Max(high, b.High)
		low = decimal.Min(low, b.Low)
	}
	change := valuation.ReturnPercent(last.Close, first.Close)

	return fmt.Sprintf("📅 *%s: 1 MONTH*\n"+
		"%s → %s (%d sessions)\n"+
		"Close: $%s → $%s (%s%s%%)\n"+
		"High: $%s | Low: $%s",
		ticker, first.Time.Format("2006-01-02"), last.Time.Format("2006-01-02"), len(bars),
		first.Close.StringFixed(2), last.Close.StringFixed(2), plIcon(change), change.StringFixed(2),
		high.StringFixed(2), low.StringFixed(2))
}
