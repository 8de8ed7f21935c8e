package s1_analysts

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

// Technical indicator parameters
const (
	rsiPeriod       = 14
	macdFast        = 12
	macdSlow        = 26
	macdSignal      = 9
	srWindow        = 20
	volWindow       = 20
	limitUpPct      = 9.9
	rsiOversold     = 30.0
	rsiOverbought   = 70.0
	longAlignBars   = 60
	technicalK      = 2.0
	technicalCap    = 100.0
	minMomentumBars = 14
)

// TechnicalAnalyst scores trend, momentum and support/resistance from daily bars
// ⭐ SSOT: 기술적 지표 계산은 여기서만
type TechnicalAnalyst struct {
	logger *logger.Logger
}

// NewTechnicalAnalyst creates a new technical analyst
func NewTechnicalAnalyst(log *logger.Logger) *TechnicalAnalyst {
	return &TechnicalAnalyst{logger: log}
}

// Name returns the context key
func (a *TechnicalAnalyst) Name() contracts.Domain { return contracts.DomainTechnical }

// Analyze computes the technical view
func (a *TechnicalAnalyst) Analyze(ctx context.Context, snap contracts.Context) contracts.Output {
	market := snap.Market()
	if len(market.Bars) == 0 {
		return contracts.NewOutput(contracts.DomainTechnical, NameTechnical, contracts.SignalNeutral, 0,
			"missing price data", nil, time.Now())
	}

	details := analyzeBars(market.Bars)
	score := technicalScore(details)
	details.Score = score

	a.logger.WithFields(map[string]interface{}{
		"symbol":    snap.Symbol(),
		"rsi":       details.Momentum.RSI,
		"macd":      details.Momentum.MACD,
		"alignment": details.Trend.MAAlignment,
		"score":     score,
	}).Debug("Calculated technical score")

	return scoredOutput(contracts.DomainTechnical, NameTechnical, score, technicalK, technicalCap,
		technicalSummary(details), details)
}

func analyzeBars(bars []contracts.Bar) *contracts.TechnicalDetails {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	return &contracts.TechnicalDetails{
		Trend:             analyzeTrend(closes),
		Momentum:          analyzeMomentum(closes),
		SupportResistance: supportResistance(bars),
		Patterns:          detectPatterns(bars, closes),
		Volatility20D:     volatility(closes, volWindow),
	}
}

func analyzeTrend(closes []float64) contracts.TrendDetails {
	last := closes[len(closes)-1]
	sma5, sma10, sma20, sma60 := sma(closes, 5), sma(closes, 10), sma(closes, 20), sma(closes, 60)

	return contracts.TrendDetails{
		ShortTerm:   direction(last, sma5),
		MidTerm:     direction(last, sma20),
		LongTerm:    direction(last, sma60),
		MAAlignment: alignment(sma5, sma10, sma20),
	}
}

func direction(price, average float64) contracts.Direction {
	if price > average {
		return contracts.DirectionUp
	}
	return contracts.DirectionDown
}

func alignment(sma5, sma10, sma20 float64) contracts.Alignment {
	switch {
	case sma5 > sma10 && sma10 > sma20:
		return contracts.AlignmentBullish
	case sma5 < sma10 && sma10 < sma20:
		return contracts.AlignmentBearish
	default:
		return contracts.AlignmentMixed
	}
}

func analyzeMomentum(closes []float64) contracts.MomentumDetails {
	// 데이터 부족 시 중립
	if len(closes) < minMomentumBars {
		return contracts.MomentumDetails{
			RSI:        50,
			RSISignal:  contracts.LevelNeutral,
			MACDSignal: contracts.LevelNeutral,
		}
	}

	r := rsi(closes, rsiPeriod)
	line, signal := macd(closes, macdFast, macdSlow, macdSignal)

	m := contracts.MomentumDetails{
		RSI:        r,
		RSISignal:  contracts.LevelNeutral,
		MACD:       line,
		SignalLine: signal,
		MACDSignal: contracts.LevelNeutral,
	}

	switch {
	case r > rsiOverbought:
		m.RSISignal = contracts.LevelOverbought
	case r < rsiOversold:
		m.RSISignal = contracts.LevelOversold
	}

	switch {
	case line > signal:
		m.MACDSignal = contracts.LevelGolden
	case line < signal:
		m.MACDSignal = contracts.LevelDeath
	}

	return m
}

func supportResistance(bars []contracts.Bar) contracts.SupportResistance {
	start := len(bars) - srWindow
	if start < 0 {
		start = 0
	}
	recent := bars[start:]

	support, resistance := math.Inf(1), math.Inf(-1)
	for _, b := range recent {
		low, high := b.Low, b.High
		if low == 0 {
			low = b.Close
		}
		if high == 0 {
			high = b.Close
		}
		support = math.Min(support, low)
		resistance = math.Max(resistance, high)
	}

	current := bars[len(bars)-1].Close
	position := 0.5
	if resistance != support {
		position = (current - support) / (resistance - support)
	}

	return contracts.SupportResistance{
		Support:    round2(support),
		Resistance: round2(resistance),
		Current:    round2(current),
		Position:   position,
	}
}

func detectPatterns(bars []contracts.Bar, closes []float64) []string {
	patterns := []string{}

	if bars[len(bars)-1].ChangePct >= limitUpPct {
		patterns = append(patterns, contracts.PatternLimitUp)
	}

	if len(closes) > longAlignBars {
		sma5, sma10, sma20, sma60 := sma(closes, 5), sma(closes, 10), sma(closes, 20), sma(closes, 60)
		if sma5 > sma10 && sma10 > sma20 && sma20 > sma60 {
			patterns = append(patterns, contracts.PatternLongAlignment)
		}
	}

	return patterns
}

func technicalScore(d *contracts.TechnicalDetails) float64 {
	score := baseline

	if d.Trend.ShortTerm == contracts.DirectionUp {
		score += 10
	}
	if d.Trend.MidTerm == contracts.DirectionUp {
		score += 10
	}
	if d.Trend.MAAlignment == contracts.AlignmentBullish {
		score += 10
	}

	switch d.Momentum.RSISignal {
	case contracts.LevelOversold:
		score += 15
	case contracts.LevelOverbought:
		score -= 15
	}

	switch d.Momentum.MACDSignal {
	case contracts.LevelGolden:
		score += 10
	case contracts.LevelDeath:
		score -= 10
	}

	return contracts.ClampScore(score)
}

func technicalSummary(d *contracts.TechnicalDetails) string {
	return fmt.Sprintf("trend %s/%s | RSI %.1f (%s) | support/resistance %.2f/%.2f",
		d.Trend.ShortTerm, d.Trend.MidTerm,
		d.Momentum.RSI, d.Momentum.RSISignal,
		d.SupportResistance.Support, d.SupportResistance.Resistance)
}
