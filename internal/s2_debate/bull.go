package s2_debate

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/internal/strategyconfig"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

// BullAnalyst argues the long side. An optional advisor adds one supplementary vote.
type BullAnalyst struct {
	params  strategyconfig.Debate
	advisor contracts.Advisor
	logger  *logger.Logger
}

// NewBullAnalyst creates a bull analyst. advisor may be nil.
func NewBullAnalyst(params strategyconfig.Debate, advisor contracts.Advisor, log *logger.Logger) *BullAnalyst {
	return &BullAnalyst{params: params, advisor: advisor, logger: log}
}

// Name returns the context key
func (a *BullAnalyst) Name() contracts.Domain { return contracts.DomainBull }

// Analyze builds the bull case. Signal is always BULLISH.
func (a *BullAnalyst) Analyze(ctx context.Context, snap contracts.Context) contracts.Output {
	cases := BullCases(snap)
	advice := a.consult(ctx, snap)

	conf := confidence(cases, a.params, a.params.BullBias)
	if advice.IsBullish() {
		if len(cases) == 0 {
			conf = math.Min(a.params.MaxConfidence, a.params.BaseConfidence+a.params.BullBias)
		}
		conf = math.Min(a.params.MaxConfidence, math.Max(conf+a.params.AdvisoryBoost, advice.Confidence))
	}

	target := TargetPrice(snap.Market().Quote.Current, conf)

	a.logger.WithFields(map[string]interface{}{
		"symbol":     snap.Symbol(),
		"cases":      len(cases),
		"weight":     totalWeight(cases),
		"advisory":   advice.IsBullish(),
		"confidence": conf,
	}).Debug("Built bull case")

	summary := summarize("bull", cases, "+", "target", target)
	if advice.IsBullish() {
		summary += fmt.Sprintf(" | %s advisory bullish (%.0f%%)", advice.Provider, advice.Confidence)
	}

	details := &contracts.BullDetails{
		Cases:       nonNil(cases),
		TargetPrice: target,
		Bias:        a.params.BullBias,
		Advisory:    advice,
	}
	return contracts.NewOutput(contracts.DomainBull, NameBull, contracts.SignalBullish, conf, summary, details, time.Now())
}

// consult asks the advisor. Any error or empty reply means "no opinion".
func (a *BullAnalyst) consult(ctx context.Context, snap contracts.Context) *contracts.Advice {
	if a.advisor == nil {
		return nil
	}

	req := contracts.AdvisoryRequest{
		Symbol: snap.Symbol(),
		Name:   snap.Market().Name,
		Market: snap.Market(),
	}
	if tech, ok := contracts.Lookup[*contracts.TechnicalDetails](snap, contracts.DomainTechnical); ok {
		req.Technical = tech
	}
	if capital, ok := contracts.Lookup[*contracts.CapitalDetails](snap, contracts.DomainCapital); ok {
		req.Capital = capital
	}

	advice, err := a.advisor.Advise(ctx, req)
	if err != nil {
		a.logger.WithError(err).WithFields(map[string]interface{}{
			"symbol":   snap.Symbol(),
			"provider": a.advisor.Name(),
		}).Warn("Advisory unavailable, using rule-based bull case")
		return nil
	}
	if advice != nil {
		advice.Confidence = contracts.ClampScore(advice.Confidence)
	}
	return advice
}

func nonNil(cases []contracts.Case) []contracts.Case {
	if cases == nil {
		return []contracts.Case{}
	}
	return cases
}
