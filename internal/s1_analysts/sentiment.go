package s1_analysts

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

// SentimentAnalyst reads retail crowd positioning as a contrarian indicator.
// 극단적 탐욕 → 고점 신호 → BEARISH, 극단적 공포 → 바닥 신호 → BULLISH
type SentimentAnalyst struct {
	source     contracts.CrowdSource
	thresholds contracts.SentimentThresholds
	logger     *logger.Logger
}

// DefaultSentimentThresholds returns 85/70/30/15
func DefaultSentimentThresholds() contracts.SentimentThresholds {
	return contracts.SentimentThresholds{ExtremeGreed: 85, Greed: 70, Fear: 30, ExtremeFear: 15}
}

// NewSentimentAnalyst creates a new crowd-sentiment analyst
func NewSentimentAnalyst(source contracts.CrowdSource, thresholds contracts.SentimentThresholds, log *logger.Logger) *SentimentAnalyst {
	return &SentimentAnalyst{source: source, thresholds: thresholds, logger: log}
}

// Name returns the context key
func (a *SentimentAnalyst) Name() contracts.Domain { return contracts.DomainSentiment }

// Analyze computes the sentiment index and its contrarian reading
func (a *SentimentAnalyst) Analyze(ctx context.Context, snap contracts.Context) contracts.Output {
	metrics := contracts.NeutralCrowdMetrics()
	if a.source != nil {
		m, err := a.source.Crowd(ctx, snap.Symbol())
		if err != nil {
			a.logger.WithError(err).WithField("symbol", snap.Symbol()).Warn("Crowd metrics unavailable, using neutral defaults")
		} else {
			metrics = m
		}
	}

	index := SentimentIndex(metrics)
	signal, confidence, interpretation := a.Interpret(index)

	a.logger.WithFields(map[string]interface{}{
		"symbol":     snap.Symbol(),
		"index":      index,
		"bull_ratio": metrics.BullRatio,
		"signal":     signal,
	}).Debug("Calculated crowd sentiment")

	details := &contracts.SentimentDetails{
		Index:          index,
		Interpretation: interpretation,
		Thresholds:     a.thresholds,
		Raw:            metrics,
	}
	summary := fmt.Sprintf("sentiment index %.0f/100 (%s) | %s", index, a.level(index), interpretation)
	return contracts.NewOutput(contracts.DomainSentiment, NameSentiment, signal, confidence, summary, details, time.Now())
}

// SentimentIndex combines margin, forum, search and retail flow into 0..100
func SentimentIndex(m contracts.CrowdMetrics) float64 {
	index := baseline

	switch {
	case m.MarginChange5D > 10:
		index += 15
	case m.MarginChange5D < -10:
		index -= 15
	}

	index += (m.BullRatio - 0.5) * 40

	switch m.SearchTrend {
	case contracts.TrendUp:
		index += 10
	case contracts.TrendDown:
		index -= 10
	}

	if m.RetailNetFlow > 0 {
		index += 5
	} else {
		index -= 5
	}

	return contracts.ClampScore(index)
}

// Interpret maps an index to signal, confidence and a reading
func (a *SentimentAnalyst) Interpret(index float64) (contracts.Signal, float64, string) {
	t := a.thresholds
	switch {
	case index >= t.ExtremeGreed:
		return contracts.SignalBearish, math.Min(90, index),
			fmt.Sprintf("extreme greed (%.0f): crowd overheated, watch for a pullback", index)
	case index >= t.Greed:
		return contracts.SignalBearish, (index - 50) * 1.5,
			fmt.Sprintf("greed (%.0f): crowd running hot, stay cautious", index)
	case index <= t.ExtremeFear:
		return contracts.SignalBullish, math.Min(90, 100-index),
			fmt.Sprintf("extreme fear (%.0f): crowd capitulating, bottom may be near", index)
	case index <= t.Fear:
		return contracts.SignalBullish, (50 - index) * 1.5,
			fmt.Sprintf("fear (%.0f): crowd cold, watch for a rebound", index)
	default:
		return contracts.SignalNeutral, 30,
			fmt.Sprintf("neutral (%.0f): no contrarian signal", index)
	}
}

func (a *SentimentAnalyst) level(index float64) string {
	t := a.thresholds
	switch {
	case index >= t.ExtremeGreed:
		return "extreme greed"
	case index >= t.Greed:
		return "greed"
	case index <= t.ExtremeFear:
		return "extreme fear"
	case index <= t.Fear:
		return "fear"
	default:
		return "neutral"
	}
}
