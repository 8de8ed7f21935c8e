package s1_analysts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

// mockSources implements every collaborator source
type mockSources struct {
	mock.Mock
}

func (m *mockSources) FundFlow(ctx context.Context, symbol string) (contracts.FundFlow, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(contracts.FundFlow), args.Error(1)
}

func (m *mockSources) News(ctx context.Context, symbol string, limit int) ([]contracts.NewsItem, error) {
	args := m.Called(ctx, symbol, limit)
	items, _ := args.Get(0).([]contracts.NewsItem)
	return items, args.Error(1)
}

func (m *mockSources) Sector(ctx context.Context, industry string) (contracts.SectorProfile, error) {
	args := m.Called(ctx, industry)
	return args.Get(0).(contracts.SectorProfile), args.Error(1)
}

func (m *mockSources) Crowd(ctx context.Context, symbol string) (contracts.CrowdMetrics, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(contracts.CrowdMetrics), args.Error(1)
}

func rootContext(f contracts.Fundamentals) contracts.Context {
	return contracts.NewContext(contracts.MarketSnapshot{Symbol: "000001", Name: "平安银行", Fundamentals: f})
}

func TestCapitalScore(t *testing.T) {
	tests := []struct {
		name string
		flow contracts.FundFlow
		want float64
	}{
		{"zero flows", contracts.FundFlow{}, 50},
		{"strong inflow clamps", contracts.FundFlow{
			MainNet: 6000, NorthNetToday: 1500, MarginChange: 2000,
			DragonTiger: contracts.DragonTiger{InList: true, NetAmount: 100},
		}, 100},
		{"moderate outflow", contracts.FundFlow{MainNet: -2000, NorthNetToday: -500}, 25},
		{"heavy outflow", contracts.FundFlow{MainNet: -6000, NorthNetToday: -1500, MarginChange: -1500}, 0},
		{"dragon tiger with zero net counts as selling", contracts.FundFlow{
			DragonTiger: contracts.DragonTiger{InList: true},
		}, 35},
		{"boundaries are exclusive", contracts.FundFlow{MainNet: 1000, NorthNetToday: 1000, MarginChange: 1000}, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, capitalScore(tt.flow))
		})
	}
}

func TestCapitalAnalyst_Analyze(t *testing.T) {
	src := new(mockSources)
	src.On("FundFlow", mock.Anything, "000001").Return(contracts.FundFlow{MainNet: -2000, NorthNetToday: -500}, nil)

	out := NewCapitalAnalyst(src, logger.Nop()).Analyze(context.Background(), rootContext(contracts.Fundamentals{}))

	assert.Equal(t, contracts.SignalBearish, out.Signal)
	assert.InDelta(t, 50.0, out.Confidence, 1e-9)
	assert.Contains(t, out.Summary, "main force outflow 2000")

	details := out.Details.(*contracts.CapitalDetails)
	assert.Equal(t, 25.0, details.Score)
	src.AssertExpectations(t)
}

func TestCapitalAnalyst_SourceErrorUsesZeroFlows(t *testing.T) {
	src := new(mockSources)
	src.On("FundFlow", mock.Anything, "000001").Return(contracts.FundFlow{}, errors.New("upstream 502"))

	out := NewCapitalAnalyst(src, logger.Nop()).Analyze(context.Background(), rootContext(contracts.Fundamentals{}))

	assert.Equal(t, contracts.SignalNeutral, out.Signal)
	assert.Equal(t, 0.0, out.Confidence)
	assert.Equal(t, "capital flows neutral", out.Summary)
	assert.False(t, out.Failed())
}

func TestIntelligenceAnalyst_NoNews(t *testing.T) {
	src := new(mockSources)
	src.On("News", mock.Anything, "000001", 20).Return(nil, nil)

	out := NewIntelligenceAnalyst(src, 20, logger.Nop()).Analyze(context.Background(), rootContext(contracts.Fundamentals{}))

	details := out.Details.(*contracts.IntelligenceDetails)
	assert.Equal(t, 50.0, details.Score)
	assert.Equal(t, 0.5, details.Sentiment.PositiveRatio)
	assert.Equal(t, contracts.MoodNeutral, details.Sentiment.Overall)
	assert.Equal(t, contracts.PolicyNeutral, details.Policy.Impact)
	assert.Equal(t, contracts.SignalNeutral, out.Signal)
}

func TestIntelligenceAnalyst_PositiveNews(t *testing.T) {
	news := []contracts.NewsItem{
		{Title: "公司业绩增长超预期"},
		{Title: "政策支持新能源，行业复苏"},
		{Title: "产品价格上涨"},
	}
	src := new(mockSources)
	src.On("News", mock.Anything, "000001", 20).Return(news, nil)

	out := NewIntelligenceAnalyst(src, 20, logger.Nop()).Analyze(context.Background(),
		rootContext(contracts.Fundamentals{Industry: "电力设备"}))

	details := out.Details.(*contracts.IntelligenceDetails)
	assert.Equal(t, contracts.PolicyPositive, details.Policy.Impact)
	assert.Equal(t, "电力设备", details.Policy.Industry)
	assert.Equal(t, contracts.MoodOptimistic, details.Sentiment.Overall)
	assert.Equal(t, 1.0, details.Sentiment.PositiveRatio)
	assert.Len(t, details.Sentiment.HotTopics, 3)

	// 50 + 20 + 15
	assert.Equal(t, 85.0, details.Score)
	assert.Equal(t, contracts.SignalBullish, out.Signal)
	assert.InDelta(t, 52.5, out.Confidence, 1e-9)
}

func TestIntelligenceAnalyst_RiskEventsCapped(t *testing.T) {
	news := []contracts.NewsItem{
		{Title: "大股东减持计划"},
		{Title: "高管减持公告"},
		{Title: "限售股解禁"},
		{Title: "二股东减持完成"},
	}
	src := new(mockSources)
	src.On("News", mock.Anything, "000001", 20).Return(news, nil)

	out := NewIntelligenceAnalyst(src, 20, logger.Nop()).Analyze(context.Background(), rootContext(contracts.Fundamentals{}))

	details := out.Details.(*contracts.IntelligenceDetails)
	assert.Len(t, details.Sentiment.RiskEvents, 3)
	assert.Equal(t, contracts.MoodPessimistic, details.Sentiment.Overall)

	// 50 - 15 (pessimistic) - 15 (risk cap)
	assert.Equal(t, 20.0, details.Score)
	assert.Equal(t, contracts.SignalBearish, out.Signal)
	assert.InDelta(t, 45.0, out.Confidence, 1e-9)
}

func TestIntelligenceScore_ConfidenceCap(t *testing.T) {
	out := scoredOutput(contracts.DomainIntelligence, NameIntelligence, 0, intelligenceK, intelligenceCap, "", nil)
	assert.Equal(t, 75.0, out.Confidence)

	out = scoredOutput(contracts.DomainIntelligence, NameIntelligence, 110, 3, intelligenceCap, "", nil)
	assert.Equal(t, 90.0, out.Confidence)
}

func TestCompareValuation(t *testing.T) {
	tests := []struct {
		stock, median float64
		want          contracts.ValuationLevel
	}{
		{10, 20, contracts.ValuationUndervalued},
		{30, 20, contracts.ValuationOvervalued},
		{20, 20, contracts.ValuationFair},
		{16, 20, contracts.ValuationFair},
		{-5, 20, contracts.ValuationFair},
		{0, 20, contracts.ValuationFair},
		{10, 0, contracts.ValuationFair},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompareValuation(tt.stock, tt.median).Level, "pe=%v median=%v", tt.stock, tt.median)
	}
}

func TestTrendFromChanges(t *testing.T) {
	assert.Equal(t, contracts.TrendUp, TrendFromChanges(0.5, 4))
	assert.Equal(t, contracts.TrendUp, TrendFromChanges(1.5, 0.2))
	assert.Equal(t, contracts.TrendDown, TrendFromChanges(-0.5, -4))
	assert.Equal(t, contracts.TrendDown, TrendFromChanges(-1.5, -0.2))
	assert.Equal(t, contracts.TrendFlat, TrendFromChanges(1.5, -1))
	assert.Equal(t, contracts.TrendFlat, TrendFromChanges(0, 0))
}

func TestSectorAnalyst_Analyze(t *testing.T) {
	src := new(mockSources)
	src.On("Sector", mock.Anything, "银行").Return(contracts.SectorProfile{
		Name: "银行", Rank: 3, BoardCount: 86, Trend: contracts.TrendUp, MedianPE: 30,
	}, nil)

	out := NewSectorAnalyst(src, logger.Nop()).Analyze(context.Background(),
		rootContext(contracts.Fundamentals{Industry: "银行", PE: 15}))

	details := out.Details.(*contracts.SectorDetails)
	assert.Equal(t, contracts.ValuationUndervalued, details.Valuation.Level)
	assert.Equal(t, 75.0, details.Score)
	assert.Equal(t, contracts.SignalBullish, out.Signal)
	assert.InDelta(t, 37.5, out.Confidence, 1e-9)
	assert.Contains(t, out.Summary, "rank 3/86")
}

func TestSectorAnalyst_NoIndustrySkipsSource(t *testing.T) {
	src := new(mockSources)

	out := NewSectorAnalyst(src, logger.Nop()).Analyze(context.Background(), rootContext(contracts.Fundamentals{PE: 12}))

	assert.Equal(t, contracts.SignalNeutral, out.Signal)
	assert.Equal(t, "sector neutral", out.Summary)
	src.AssertNotCalled(t, "Sector", mock.Anything, mock.Anything)
}

func TestSentimentIndex(t *testing.T) {
	tests := []struct {
		name    string
		metrics contracts.CrowdMetrics
		want    float64
	}{
		{"neutral defaults", contracts.NeutralCrowdMetrics(), 45},
		{"euphoric crowd", contracts.CrowdMetrics{
			MarginChange5D: 12, BullRatio: 1, SearchTrend: contracts.TrendUp, RetailNetFlow: 100,
		}, 100},
		{"capitulation", contracts.CrowdMetrics{
			MarginChange5D: -12, BullRatio: 0, SearchTrend: contracts.TrendDown, RetailNetFlow: -1,
		}, 0},
		{"bull ratio is linear", contracts.CrowdMetrics{BullRatio: 0.75, RetailNetFlow: 1}, 65},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SentimentIndex(tt.metrics), 1e-9)
		})
	}
}

func TestSentimentAnalyst_Interpret(t *testing.T) {
	a := NewSentimentAnalyst(nil, DefaultSentimentThresholds(), logger.Nop())

	tests := []struct {
		index      float64
		signal     contracts.Signal
		confidence float64
	}{
		{95, contracts.SignalBearish, 90},
		{85, contracts.SignalBearish, 85},
		{75, contracts.SignalBearish, 37.5},
		{70, contracts.SignalBearish, 30},
		{50, contracts.SignalNeutral, 30},
		{31, contracts.SignalNeutral, 30},
		{30, contracts.SignalBullish, 30},
		{25, contracts.SignalBullish, 37.5},
		{15, contracts.SignalBullish, 85},
		{5, contracts.SignalBullish, 90},
	}

	for _, tt := range tests {
		signal, confidence, reading := a.Interpret(tt.index)
		assert.Equal(t, tt.signal, signal, "index %v", tt.index)
		assert.InDelta(t, tt.confidence, confidence, 1e-9, "index %v", tt.index)
		assert.NotEmpty(t, reading)
	}
}

func TestSentimentAnalyst_CustomThresholds(t *testing.T) {
	a := NewSentimentAnalyst(nil, contracts.SentimentThresholds{ExtremeGreed: 95, Greed: 80, Fear: 20, ExtremeFear: 5}, logger.Nop())

	signal, confidence, _ := a.Interpret(75)
	assert.Equal(t, contracts.SignalNeutral, signal)
	assert.Equal(t, 30.0, confidence)
}

func TestSentimentAnalyst_Analyze(t *testing.T) {
	src := new(mockSources)
	src.On("Crowd", mock.Anything, "000001").Return(contracts.CrowdMetrics{}, errors.New("forum blocked"))

	out := NewSentimentAnalyst(src, DefaultSentimentThresholds(), logger.Nop()).
		Analyze(context.Background(), rootContext(contracts.Fundamentals{}))

	require.IsType(t, &contracts.SentimentDetails{}, out.Details)
	details := out.Details.(*contracts.SentimentDetails)
	assert.Equal(t, 45.0, details.Index)
	assert.Equal(t, 0.5, details.Raw.BullRatio)
	assert.Equal(t, DefaultSentimentThresholds(), details.Thresholds)
	assert.Equal(t, contracts.SignalNeutral, out.Signal)
	assert.Equal(t, 30.0, out.Confidence)
}
