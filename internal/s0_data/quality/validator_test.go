package quality

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/zuwa/backend/internal/contracts"
)

func makeBars(n int) []contracts.Bar {
	bars := make([]contracts.Bar, n)
	for i := range bars {
		bars[i] = contracts.Bar{
			Date:   fmt.Sprintf("2026-%02d-%02d", 1+i/28, 1+i%28),
			Open:   10,
			High:   11,
			Low:    9,
			Close:  10.5,
			Volume: 1000,
		}
	}
	return bars
}

func fullSnapshot(n int) contracts.MarketSnapshot {
	return contracts.MarketSnapshot{
		Symbol: "600519",
		Name:   "贵州茅台",
		Quote:  contracts.Quote{Current: 10.5},
		Fundamentals: contracts.Fundamentals{
			Industry:  "酿酒行业",
			MarketCap: 21000000,
			PE:        28.4,
			PB:        8.1,
			ROE:       24.6,
		},
		Bars: makeBars(n),
	}
}

func TestGate_Check_Clean(t *testing.T) {
	gate := NewGate(DefaultConfig())

	out, report := gate.Check(fullSnapshot(120))

	assert.True(t, report.Passed)
	assert.Equal(t, 120, report.TotalBars)
	assert.Equal(t, 120, report.ValidBars)
	assert.InDelta(t, 1.0, report.Score, 1e-9)
	assert.Empty(t, report.Issues)
	assert.Len(t, out.Bars, 120)

	// Check coverage keys
	for _, key := range []string{"price", "volume", "quote", "fundamentals"} {
		assert.Contains(t, report.Coverage, key)
	}
}

func TestGate_Check_DropsInvalidBars(t *testing.T) {
	snap := fullSnapshot(3)
	snap.Bars = append(snap.Bars,
		contracts.Bar{Date: "2026-02-01", Open: 10, High: 11, Low: 9, Close: 0},   // zero close
		contracts.Bar{Date: "2026-02-02", Open: 10, High: 8, Low: 9, Close: 10},   // high < low
		contracts.Bar{Date: "", Open: 10, High: 11, Low: 9, Close: 10},            // no date
	)

	out, report := NewGate(Config{MinBars: 1, MinScore: 0}).Check(snap)

	assert.Equal(t, 6, report.TotalBars)
	assert.Equal(t, 3, report.ValidBars)
	assert.Len(t, out.Bars, 3)
	assert.Contains(t, report.Issues, "3 invalid bars dropped")
	assert.InDelta(t, 0.5, report.Coverage["price"], 1e-9)
}

func TestGate_Check_SortsAndMergesDuplicates(t *testing.T) {
	snap := fullSnapshot(0)
	snap.Bars = []contracts.Bar{
		{Date: "2026-03-03", Open: 10, High: 11, Low: 9, Close: 10.8, Volume: 1},
		{Date: "2026-03-02", Open: 10, High: 11, Low: 9, Close: 10.2, Volume: 1},
		{Date: "2026-03-03", Open: 10, High: 11, Low: 9, Close: 10.9, Volume: 1},
	}

	out, report := NewGate(Config{}).Check(snap)

	require.Len(t, out.Bars, 2)
	assert.Equal(t, "2026-03-02", out.Bars[0].Date)
	assert.Equal(t, 10.9, out.Bars[1].Close, "last duplicate wins")
	assert.Contains(t, report.Issues, "1 duplicate dates merged")
}

func TestGate_Check_DerivesQuote(t *testing.T) {
	snap := fullSnapshot(5)
	snap.Quote = contracts.Quote{}

	out, report := NewGate(Config{}).Check(snap)

	assert.Equal(t, 10.5, out.Quote.Current)
	assert.Equal(t, snap.Bars[4].Date, out.Quote.Date)
	assert.Equal(t, 1.0, report.Coverage["quote"])
	assert.Contains(t, report.Issues, "quote missing, derived from last bar")
}

func TestGate_Check_TooFewBars(t *testing.T) {
	_, report := NewGate(DefaultConfig()).Check(fullSnapshot(20))

	assert.False(t, report.Passed)
	assert.Contains(t, report.Issues, "only 20 bars, want 60")
}

func TestGate_Check_Empty(t *testing.T) {
	out, report := NewGate(DefaultConfig()).Check(contracts.EmptySnapshot("600519"))

	assert.True(t, out.IsEmpty())
	assert.NotNil(t, out.Bars)
	assert.Equal(t, 0.0, report.Score)
	assert.False(t, report.Passed)
}

func TestCalculateScore(t *testing.T) {
	tests := []struct {
		name     string
		coverage map[string]float64
		want     float64
	}{
		{"all full", map[string]float64{"price": 1, "volume": 1, "quote": 1, "fundamentals": 1}, 1.0},
		{"bars only", map[string]float64{"price": 1, "volume": 1}, 0.6},
		{"partial fundamentals", map[string]float64{"price": 1, "volume": 1, "quote": 1, "fundamentals": 0.4}, 0.88},
		{"empty", map[string]float64{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calculateScore(tt.coverage), 1e-9)
		})
	}
}
