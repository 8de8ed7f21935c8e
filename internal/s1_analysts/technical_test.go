package s1_analysts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

// makeBars builds a daily series with a 1% high/low band around each close
func makeBars(closes []float64) []contracts.Bar {
	bars := make([]contracts.Bar, len(closes))
	for i, c := range closes {
		bars[i] = contracts.Bar{
			Date:   "2026-01-01",
			Open:   c,
			Close:  c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Volume: 1000,
		}
	}
	return bars
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func snapshotWith(bars []contracts.Bar) contracts.Context {
	return contracts.NewContext(contracts.MarketSnapshot{
		Symbol: "600519",
		Quote:  contracts.QuoteFromBars(bars),
		Bars:   bars,
	})
}

func TestTechnicalAnalyst_NoBars(t *testing.T) {
	a := NewTechnicalAnalyst(logger.Nop())

	out := a.Analyze(context.Background(), snapshotWith(nil))

	assert.Equal(t, contracts.SignalNeutral, out.Signal)
	assert.Equal(t, 0.0, out.Confidence)
	assert.Equal(t, "missing price data", out.Summary)
	assert.Nil(t, out.Details)
	assert.False(t, out.Failed())
}

func TestTechnicalAnalyst_RisingSeries(t *testing.T) {
	a := NewTechnicalAnalyst(logger.Nop())

	out := a.Analyze(context.Background(), snapshotWith(makeBars(linear(80, 10, 0.1))))

	details, ok := out.Details.(*contracts.TechnicalDetails)
	require.True(t, ok)

	assert.Equal(t, contracts.DirectionUp, details.Trend.ShortTerm)
	assert.Equal(t, contracts.DirectionUp, details.Trend.MidTerm)
	assert.Equal(t, contracts.AlignmentBullish, details.Trend.MAAlignment)
	assert.Equal(t, contracts.LevelOverbought, details.Momentum.RSISignal)
	assert.Equal(t, contracts.LevelGolden, details.Momentum.MACDSignal)
	assert.True(t, details.HasPattern(contracts.PatternLongAlignment))

	// 50 + 10 + 10 + 10 - 15 + 10
	assert.Equal(t, 75.0, details.Score)
	assert.Equal(t, contracts.SignalBullish, out.Signal)
	assert.InDelta(t, 50.0, out.Confidence, 1e-9)
}

func TestTechnicalAnalyst_FallingSeries(t *testing.T) {
	a := NewTechnicalAnalyst(logger.Nop())

	out := a.Analyze(context.Background(), snapshotWith(makeBars(linear(80, 20, -0.1))))

	details := out.Details.(*contracts.TechnicalDetails)
	assert.Equal(t, contracts.DirectionDown, details.Trend.ShortTerm)
	assert.Equal(t, contracts.AlignmentBearish, details.Trend.MAAlignment)
	assert.Equal(t, contracts.LevelOversold, details.Momentum.RSISignal)
	assert.Equal(t, contracts.LevelDeath, details.Momentum.MACDSignal)
	assert.False(t, details.HasPattern(contracts.PatternLongAlignment))

	// 50 + 15 - 10
	assert.Equal(t, 55.0, details.Score)
	assert.Equal(t, contracts.SignalNeutral, out.Signal)
	assert.InDelta(t, 10.0, out.Confidence, 1e-9)
}

func TestTechnicalAnalyst_ShortSeriesMomentumNeutral(t *testing.T) {
	a := NewTechnicalAnalyst(logger.Nop())

	out := a.Analyze(context.Background(), snapshotWith(makeBars(linear(10, 10, 0.1))))

	details := out.Details.(*contracts.TechnicalDetails)
	assert.Equal(t, 50.0, details.Momentum.RSI)
	assert.Equal(t, contracts.LevelNeutral, details.Momentum.RSISignal)
	assert.Equal(t, contracts.LevelNeutral, details.Momentum.MACDSignal)
}

func TestTechnicalAnalyst_LimitUpPattern(t *testing.T) {
	bars := makeBars(linear(30, 10, 0.05))
	bars[len(bars)-1].ChangePct = 10.01

	details := analyzeBars(bars)
	assert.True(t, details.HasPattern(contracts.PatternLimitUp))
}

func TestSupportResistance(t *testing.T) {
	bars := []contracts.Bar{
		{Close: 10, High: 11, Low: 9},
		{Close: 10.5, High: 12, Low: 10},
		{Close: 11, High: 11.5, Low: 10.5},
	}
	sr := supportResistance(bars)

	assert.Equal(t, 9.0, sr.Support)
	assert.Equal(t, 12.0, sr.Resistance)
	assert.Equal(t, 11.0, sr.Current)
	assert.InDelta(t, 2.0/3.0, sr.Position, 1e-9)

	flat := supportResistance([]contracts.Bar{{Close: 10}, {Close: 10}})
	assert.Equal(t, 0.5, flat.Position)
}

func TestIndicators(t *testing.T) {
	t.Run("sma window larger than series", func(t *testing.T) {
		assert.InDelta(t, 2.0, sma([]float64{1, 2, 3}, 10), 1e-9)
		assert.InDelta(t, 2.5, sma([]float64{1, 2, 3}, 2), 1e-9)
		assert.Equal(t, 0.0, sma(nil, 5))
	})

	t.Run("ewm is adjusted", func(t *testing.T) {
		out := ewm([]float64{1, 2}, 3)
		assert.InDelta(t, 1.0, out[0], 1e-9)
		assert.InDelta(t, 2.5/1.5, out[1], 1e-9)
	})

	t.Run("ewm of constant is constant", func(t *testing.T) {
		for _, v := range ewm([]float64{5, 5, 5, 5}, 12) {
			assert.InDelta(t, 5.0, v, 1e-9)
		}
	})

	t.Run("rsi of flat series", func(t *testing.T) {
		assert.InDelta(t, 0.0, rsi([]float64{1, 1, 1, 1}, 14), 1e-6)
	})

	t.Run("volatility needs two returns", func(t *testing.T) {
		assert.Equal(t, 0.0, volatility([]float64{10, 11}, 20))
		assert.Greater(t, volatility([]float64{10, 11, 10, 11, 10}, 20), 0.0)
	})
}
