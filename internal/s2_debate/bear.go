package s2_debate

import (
	"context"
	"time"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/internal/strategyconfig"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

// BearAnalyst argues the short side
type BearAnalyst struct {
	params strategyconfig.Debate
	logger *logger.Logger
}

// NewBearAnalyst creates a bear analyst
func NewBearAnalyst(params strategyconfig.Debate, log *logger.Logger) *BearAnalyst {
	return &BearAnalyst{params: params, logger: log}
}

// Name returns the context key
func (a *BearAnalyst) Name() contracts.Domain { return contracts.DomainBear }

// Analyze builds the bear case. Signal is always BEARISH.
func (a *BearAnalyst) Analyze(ctx context.Context, snap contracts.Context) contracts.Output {
	cases := BearCases(snap)
	conf := confidence(cases, a.params, a.params.BearBias)
	risk := RiskPrice(snap.Market().Quote.Current, conf)

	a.logger.WithFields(map[string]interface{}{
		"symbol":     snap.Symbol(),
		"cases":      len(cases),
		"weight":     totalWeight(cases),
		"confidence": conf,
	}).Debug("Built bear case")

	details := &contracts.BearDetails{
		Cases:     nonNil(cases),
		RiskPrice: risk,
		Bias:      a.params.BearBias,
	}
	return contracts.NewOutput(contracts.DomainBear, NameBear, contracts.SignalBearish, conf,
		summarize("bear", cases, "-", "risk price", risk), details, time.Now())
}
