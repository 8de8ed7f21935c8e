package commands

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wonny/zuwa/backend/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	ruleHeavy = "═══════════════════════════════════════════════════════════"
	ruleLight = "───────────────────────────────────────────────────────────"
)

// PrintHeader prints a formatted command header
func PrintHeader(title string, lines ...string) {
	fmt.Println()
	fmt.Println(ruleHeavy)
	fmt.Printf("  %s\n", title)
	if len(lines) > 0 {
		fmt.Println(ruleLight)
		for _, l := range lines {
			fmt.Printf("  %s\n", l)
		}
	}
	fmt.Println(ruleHeavy)
}

// formatPrice renders a CNY price with two decimals, "-" for nil
func formatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return "¥" + decimal.NewFromFloat(*p).Round(2).StringFixed(2)
}

// formatChange renders the percentage distance from current to target
func formatChange(current float64, target *float64) string {
	if target == nil || current <= 0 {
		return ""
	}
	cur := decimal.NewFromFloat(current)
	pct := decimal.NewFromFloat(*target).Sub(cur).Div(cur).Mul(decimal.NewFromInt(100)).Round(1)
	if pct.IsPositive() {
		return fmt.Sprintf(" (+%s%%)", pct.StringFixed(1))
	}
	return fmt.Sprintf(" (%s%%)", pct.StringFixed(1))
}

func signalIcon(s contracts.Signal) string {
	switch s {
	case contracts.SignalBullish:
		return "🟢"
	case contracts.SignalBearish:
		return "🔴"
	default:
		return "⚪"
	}
}

// PrintDecision prints a decision record in the standard report layout
func PrintDecision(record *contracts.DecisionRecord, current float64) {
	title := record.Symbol
	if record.Name != "" {
		title = fmt.Sprintf("%s %s", record.Symbol, record.Name)
	}

	PrintHeader("📊 "+title,
		fmt.Sprintf("Run ID    : %s", record.RunID),
		fmt.Sprintf("Config    : %s", record.ConfigHash),
		fmt.Sprintf("Decided   : %s", record.Timestamp.Format("2006-01-02 15:04:05")),
	)

	fmt.Println()
	fmt.Println("[Analysts]")
	domains := append(contracts.AnalysisDomains(), contracts.DebateDomains()...)
	for _, d := range domains {
		out, ok := record.Outputs[d]
		if !ok {
			continue
		}
		if out.Failed() {
			fmt.Printf("  ❌ %-24s %s\n", out.AgentName, out.Error)
			continue
		}
		fmt.Printf("  %s %-24s %-8s %5.1f  %s\n", signalIcon(out.Signal), out.AgentName, out.Signal, out.Confidence, out.Summary)
	}

	fmt.Println()
	fmt.Println("[Scores]")
	keys := make([]string, 0, len(record.IndividualScores))
	for k := range record.IndividualScores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-16s %6.1f\n", k, record.IndividualScores[k])
	}

	fmt.Println()
	fmt.Println(ruleLight)
	fmt.Printf("  Composite : %.1f\n", record.CompositeScore)
	fmt.Printf("  Rating    : %s  confidence %.0f\n", record.Rating.Label(), record.RatingConfidence)
	fmt.Printf("  Position  : %s\n", record.Recommendation.Position)
	fmt.Printf("  Target    : %s%s\n", formatPrice(record.Recommendation.TargetPrice), formatChange(current, record.Recommendation.TargetPrice))
	fmt.Printf("  Stop loss : %s%s\n", formatPrice(record.Recommendation.StopLoss), formatChange(current, record.Recommendation.StopLoss))
	fmt.Println(ruleLight)
	fmt.Printf("  %s\n", record.Reasoning)

	if failed := record.FailedDomains(); len(failed) > 0 {
		fmt.Printf("\n⚠️  %d analyst(s) failed: %v\n", len(failed), failed)
	}
}
