package advisory

import (
	"fmt"
	"strings"

	"github.com/wonny/zuwa/backend/internal/contracts"
)

const systemPrompt = "You are a professional equity analyst covering the China A-share market. " +
	"Give an objective view and answer with a single JSON object only."

// BuildPrompt renders the request into the user prompt
func BuildPrompt(req contracts.AdvisoryRequest) string {
	var b strings.Builder
	q := req.Market.Quote
	f := req.Market.Fundamentals

	fmt.Fprintf(&b, "Assess the investment case for %s (%s).\n\n", displayName(req), req.Symbol)

	b.WriteString("[Basics]\n")
	fmt.Fprintf(&b, "- current price: %s\n", orNA(q.Current, "%.2f"))
	fmt.Fprintf(&b, "- change: %s\n", orNA(q.ChangePct, "%.2f%%"))
	fmt.Fprintf(&b, "- volume: %d\n", q.Volume)
	fmt.Fprintf(&b, "- market cap: %s\n", orNA(f.MarketCap, "%.0f"))
	fmt.Fprintf(&b, "- PE(TTM): %s, ROE: %s\n", orNA(f.PE, "%.1f"), orNA(f.ROE, "%.1f%%"))

	if t := req.Technical; t != nil {
		b.WriteString("\n[Technicals]\n")
		fmt.Fprintf(&b, "- RSI: %.1f (%s)\n", t.Momentum.RSI, t.Momentum.RSISignal)
		fmt.Fprintf(&b, "- MACD: %s\n", t.Momentum.MACDSignal)
		fmt.Fprintf(&b, "- trend: %s, MA alignment %s\n", t.Trend.ShortTerm, t.Trend.MAAlignment)
		fmt.Fprintf(&b, "- score: %.0f/100\n", t.Score)
	}

	if c := req.Capital; c != nil {
		b.WriteString("\n[Capital flow]\n")
		fmt.Fprintf(&b, "- main force net today: %.0f, 5d: %.0f\n", c.Flow.MainNet, c.Flow.Flow5D)
		fmt.Fprintf(&b, "- northbound net today: %.0f\n", c.Flow.NorthNetToday)
		fmt.Fprintf(&b, "- score: %.0f/100\n", c.Score)
	}

	b.WriteString(`
Weigh technicals, capital flow and news, then reply with:
{
  "signal": "STRONG_BUY | BUY | HOLD | SELL | STRONG_SELL",
  "confidence": 0-100,
  "reasoning": "...",
  "target_price": 0.0,
  "stop_loss": 0.0,
  "risks": ["..."]
}
`)
	return b.String()
}

func displayName(req contracts.AdvisoryRequest) string {
	if req.Name != "" {
		return req.Name
	}
	return req.Symbol
}

func orNA(v float64, format string) string {
	if v == 0 {
		return "N/A"
	}
	return fmt.Sprintf(format, v)
}
