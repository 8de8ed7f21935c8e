package s1_analysts

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

const (
	capitalK   = 2.0
	capitalCap = 100.0
)

// CapitalAnalyst scores main-force, northbound, dragon-tiger and margin flows
// 금액 단위: 만(10k) CNY
type CapitalAnalyst struct {
	source contracts.FundFlowSource
	logger *logger.Logger
}

// NewCapitalAnalyst creates a new capital analyst
func NewCapitalAnalyst(source contracts.FundFlowSource, log *logger.Logger) *CapitalAnalyst {
	return &CapitalAnalyst{source: source, logger: log}
}

// Name returns the context key
func (a *CapitalAnalyst) Name() contracts.Domain { return contracts.DomainCapital }

// Analyze computes the capital-flow view. Source failures fall back to zero flows.
func (a *CapitalAnalyst) Analyze(ctx context.Context, snap contracts.Context) contracts.Output {
	var flow contracts.FundFlow
	if a.source != nil {
		f, err := a.source.FundFlow(ctx, snap.Symbol())
		if err != nil {
			a.logger.WithError(err).WithField("symbol", snap.Symbol()).Warn("Fund flow unavailable, using zero flows")
		} else {
			flow = f
		}
	}

	score := capitalScore(flow)

	a.logger.WithFields(map[string]interface{}{
		"symbol":   snap.Symbol(),
		"main_net": flow.MainNet,
		"north":    flow.NorthNetToday,
		"score":    score,
	}).Debug("Calculated capital score")

	details := &contracts.CapitalDetails{Score: score, Flow: flow}
	return scoredOutput(contracts.DomainCapital, NameCapital, score, capitalK, capitalCap, capitalSummary(flow), details)
}

func capitalScore(f contracts.FundFlow) float64 {
	score := baseline

	// 주력 자금
	switch {
	case f.MainNet > 5000:
		score += 25
	case f.MainNet > 1000:
		score += 15
	case f.MainNet < -5000:
		score -= 25
	case f.MainNet < -1000:
		score -= 15
	}

	// 북향 자금
	switch {
	case f.NorthNetToday > 1000:
		score += 20
	case f.NorthNetToday > 0:
		score += 10
	case f.NorthNetToday < -1000:
		score -= 20
	case f.NorthNetToday < 0:
		score -= 10
	}

	if f.DragonTiger.InList {
		if f.DragonTiger.NetAmount > 0 {
			score += 15
		} else {
			score -= 15
		}
	}

	switch {
	case f.MarginChange > 1000:
		score += 10
	case f.MarginChange < -1000:
		score -= 10
	}

	return contracts.ClampScore(score)
}

func capitalSummary(f contracts.FundFlow) string {
	var parts []string

	if f.MainNet != 0 {
		parts = append(parts, fmt.Sprintf("main force %s %.0f", inOut(f.MainNet, "inflow", "outflow"), math.Abs(f.MainNet)))
	}
	if f.NorthNetToday != 0 {
		parts = append(parts, fmt.Sprintf("northbound %s %.0f (%.2f%%)",
			inOut(f.NorthNetToday, "buying", "selling"), math.Abs(f.NorthNetToday), f.HoldingRatio))
	}
	if f.DragonTiger.InList {
		parts = append(parts, fmt.Sprintf("dragon-tiger net %s %.0f",
			inOut(f.DragonTiger.NetAmount, "buy", "sell"), math.Abs(f.DragonTiger.NetAmount)))
	}
	if f.MarginChange != 0 {
		parts = append(parts, fmt.Sprintf("margin %s %.0f", inOut(f.MarginChange, "up", "down"), math.Abs(f.MarginChange)))
	}

	if len(parts) == 0 {
		return "capital flows neutral"
	}
	return strings.Join(parts, " | ")
}

func inOut(v float64, pos, neg string) string {
	if v > 0 {
		return pos
	}
	return neg
}
