package s0_data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/internal/s0_data/quality"
	"github.com/wonny/zuwa/backend/pkg/config"
	"github.com/wonny/zuwa/backend/pkg/logger"
	"github.com/wonny/zuwa/backend/pkg/redis"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Snapshot(ctx context.Context, symbol string, days int) (contracts.MarketSnapshot, error) {
	args := m.Called(ctx, symbol, days)
	return args.Get(0).(contracts.MarketSnapshot), args.Error(1)
}

func loadTestFixture(t *testing.T) *FixtureSource {
	t.Helper()
	src, err := LoadFixtures("testdata/600519.json")
	require.NoError(t, err)
	return src
}

func TestProvider_Snapshot(t *testing.T) {
	p := NewProvider(loadTestFixture(t), nil, 120, logger.Nop())

	snap := p.Snapshot(context.Background(), "SH600519")

	assert.Equal(t, "600519", snap.Symbol)
	assert.Equal(t, "贵州茅台", snap.Name)
	assert.Len(t, snap.Bars, 120)
	assert.Equal(t, "酿酒行业", snap.Fundamentals.Industry)
	assert.Greater(t, snap.Quote.Current, 0.0)
	assert.False(t, snap.IsEmpty())
}

func TestProvider_NormalizesSymbol(t *testing.T) {
	tests := []string{"600519", "sh600519", "SH600519", "600519.SH", " sh.600519 "}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			src := new(mockSource)
			src.On("Snapshot", mock.Anything, "600519", DefaultHistoryDays).
				Return(contracts.MarketSnapshot{Name: "贵州茅台", Quote: contracts.Quote{Current: 1688}}, nil)

			snap := NewProvider(src, nil, 0, logger.Nop()).Snapshot(context.Background(), in)

			assert.Equal(t, "600519", snap.Symbol)
			src.AssertExpectations(t)
		})
	}
}

func TestProvider_SourceError(t *testing.T) {
	src := new(mockSource)
	src.On("Snapshot", mock.Anything, "000001", 120).Return(contracts.MarketSnapshot{}, errors.New("connection refused"))

	snap := NewProvider(src, nil, 120, logger.Nop()).Snapshot(context.Background(), "sz000001")

	assert.Equal(t, contracts.EmptySnapshot("000001"), snap)
	assert.True(t, snap.IsEmpty())
	src.AssertExpectations(t)
}

func TestProvider_EmptySymbol(t *testing.T) {
	src := new(mockSource)

	snap := NewProvider(src, nil, 120, logger.Nop()).Snapshot(context.Background(), "  ")

	assert.True(t, snap.IsEmpty())
	src.AssertNotCalled(t, "Snapshot", mock.Anything, mock.Anything, mock.Anything)
}

func TestProvider_NilSource(t *testing.T) {
	snap := NewProvider(nil, nil, 120, logger.Nop()).Snapshot(context.Background(), "600519")
	assert.True(t, snap.IsEmpty())
}

func TestProvider_AllBarsInvalid(t *testing.T) {
	src := new(mockSource)
	src.On("Snapshot", mock.Anything, "600519", 120).Return(contracts.MarketSnapshot{
		Bars: []contracts.Bar{{Date: "2026-03-02", Close: -1}},
	}, nil)

	snap := NewProvider(src, nil, 120, logger.Nop()).Snapshot(context.Background(), "600519")

	assert.Equal(t, contracts.EmptySnapshot("600519"), snap)
}

func TestProvider_QualityGateCleansBars(t *testing.T) {
	src := new(mockSource)
	src.On("Snapshot", mock.Anything, "600519", 120).Return(contracts.MarketSnapshot{
		Bars: []contracts.Bar{
			{Date: "2026-03-03", Open: 10, High: 11, Low: 9, Close: 10.6, Volume: 1},
			{Date: "2026-03-02", Open: 10, High: 11, Low: 9, Close: 10.1, Volume: 1},
			{Date: "2026-03-04", Open: 0, High: 11, Low: 9, Close: 10.1, Volume: 1},
		},
	}, nil)

	p := NewProvider(src, nil, 120, logger.Nop()).WithQualityGate(quality.NewGate(quality.Config{}))
	snap := p.Snapshot(context.Background(), "600519")

	require.Len(t, snap.Bars, 2)
	assert.Equal(t, "2026-03-02", snap.Bars[0].Date)
	assert.Equal(t, 10.6, snap.Quote.Current, "quote derived from last valid bar")
}

func TestProvider_DisabledCache(t *testing.T) {
	rdb, err := redis.New(&config.Config{})
	require.NoError(t, err)

	src := new(mockSource)
	src.On("Snapshot", mock.Anything, "600519", 120).
		Return(contracts.MarketSnapshot{Quote: contracts.Quote{Current: 1688}}, nil).Twice()

	p := NewProvider(src, redis.NewCache(rdb, "test"), 120, logger.Nop()).WithCacheTTL(time.Minute)
	p.Snapshot(context.Background(), "600519")
	snap := p.Snapshot(context.Background(), "600519")

	assert.Equal(t, 1688.0, snap.Quote.Current)
	src.AssertNumberOfCalls(t, "Snapshot", 2)
}
