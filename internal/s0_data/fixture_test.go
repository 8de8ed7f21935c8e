package s0_data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/zuwa/backend/internal/contracts"
)

func TestLoadFixtures(t *testing.T) {
	src := loadTestFixture(t)
	ctx := context.Background()

	assert.Equal(t, []string{"600519"}, src.Symbols())

	snap, err := src.Snapshot(ctx, "600519", 0)
	require.NoError(t, err)
	assert.Len(t, snap.Bars, 130)

	trimmed, err := src.Snapshot(ctx, "sh600519", 20)
	require.NoError(t, err)
	require.Len(t, trimmed.Bars, 20)
	assert.Equal(t, snap.Bars[129], trimmed.Bars[19], "keeps the most recent bars")

	flow, err := src.FundFlow(ctx, "600519")
	require.NoError(t, err)
	assert.Equal(t, 6200.0, flow.MainNet)

	news, err := src.News(ctx, "600519", 3)
	require.NoError(t, err)
	assert.Len(t, news, 3)

	sector, err := src.Sector(ctx, "酿酒行业")
	require.NoError(t, err)
	assert.Equal(t, contracts.TrendUp, sector.Trend)

	crowd, err := src.Crowd(ctx, "600519")
	require.NoError(t, err)
	assert.Equal(t, 0.62, crowd.BullRatio)
}

func TestParseFixtures_List(t *testing.T) {
	data := []byte(`[
		{"snapshot": {"symbol": "SZ000001", "name": "平安银行"}},
		{"snapshot": {"symbol": "600036", "name": "招商银行"}, "crowd": {"bull_ratio": 0.3}}
	]`)

	src, err := ParseFixtures(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"000001", "600036"}, src.Symbols())

	snap, err := src.Snapshot(context.Background(), "000001", 120)
	require.NoError(t, err)
	assert.Equal(t, "平安银行", snap.Name)
	assert.Empty(t, snap.Bars)
}

func TestParseFixtures_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"snapshot": `},
		{"no symbol", `{"snapshot": {"name": "x"}}`},
		{"malformed list", `[{"snapshot": 1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixtures([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestFixtureSource_MissingParts(t *testing.T) {
	src := NewFixtureSource(Fixture{Snapshot: contracts.MarketSnapshot{Symbol: "000001"}})
	ctx := context.Background()

	_, err := src.Snapshot(ctx, "600519", 120)
	assert.ErrorIs(t, err, ErrNoFixture)

	_, err = src.FundFlow(ctx, "000001")
	assert.ErrorIs(t, err, ErrNoFixture)

	_, err = src.Sector(ctx, "银行")
	assert.ErrorIs(t, err, ErrNoFixture)

	crowd, err := src.Crowd(ctx, "000001")
	assert.ErrorIs(t, err, ErrNoFixture)
	assert.Equal(t, contracts.NeutralCrowdMetrics(), crowd)

	news, err := src.News(ctx, "000001", 10)
	assert.NoError(t, err)
	assert.Empty(t, news)
}
