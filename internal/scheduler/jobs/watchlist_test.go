package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/zuwa/backend/internal/brain"
	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

var decidedAt = time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)

type providerFunc func(ctx context.Context, symbol string) contracts.MarketSnapshot

func (f providerFunc) Snapshot(ctx context.Context, symbol string) contracts.MarketSnapshot {
	return f(ctx, symbol)
}

type fakeRunner struct {
	mu      sync.Mutex
	seen    []string
	failAll bool
}

func (f *fakeRunner) Run(_ context.Context, req brain.RunRequest, _ brain.Observer) *contracts.DecisionRecord {
	f.mu.Lock()
	f.seen = append(f.seen, req.Symbol)
	f.mu.Unlock()

	symbol := contracts.NormalizeSymbol(req.Symbol)
	out := contracts.NewOutput(contracts.DomainTechnical, "Technical Analyst", contracts.SignalBullish, 60, "up", nil, decidedAt)
	if f.failAll {
		out = contracts.FailureOutput(contracts.DomainTechnical, "Technical Analyst", "timeout after 10s", decidedAt)
	}
	return &contracts.DecisionRecord{
		RunID:   "run_" + symbol,
		Symbol:  symbol,
		Rating:  contracts.RatingBuy,
		Outputs: map[contracts.Domain]contracts.Output{contracts.DomainTechnical: out},
	}
}

func TestWatchlistJob_Run(t *testing.T) {
	runner := &fakeRunner{}
	job := NewWatchlistJob(runner, []string{"600519", "sz000001", "300750"}, "", logger.Nop()).WithConcurrency(2)

	assert.Equal(t, DefaultSchedule, job.Schedule())
	require.NoError(t, job.Run(context.Background()))

	assert.ElementsMatch(t, []string{"600519", "sz000001", "300750"}, runner.seen)

	record, ok := job.Latest("SZ000001")
	require.True(t, ok)
	assert.Equal(t, "run_000001", record.RunID)
}

func TestWatchlistJob_Empty(t *testing.T) {
	runner := &fakeRunner{}
	job := NewWatchlistJob(runner, nil, "@daily", logger.Nop())

	assert.NoError(t, job.Run(context.Background()))
	assert.Empty(t, runner.seen)
}

func TestWatchlistJob_AllBlind(t *testing.T) {
	job := NewWatchlistJob(&fakeRunner{failAll: true}, []string{"600519"}, "", logger.Nop())
	assert.Error(t, job.Run(context.Background()))
}

func TestWatchlistJob_ProviderDown(t *testing.T) {
	down := providerFunc(func(_ context.Context, symbol string) contracts.MarketSnapshot {
		return contracts.EmptySnapshot(contracts.NormalizeSymbol(symbol))
	})
	runner := brain.New(down, brain.Sources{}, nil, nil, logger.Nop())
	job := NewWatchlistJob(runner, []string{"600519", "000001"}, "", logger.Nop())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no market data")

	record, ok := job.Latest("600519")
	require.True(t, ok)
	assert.True(t, record.DataUnavailable)
	assert.Empty(t, record.FailedDomains())
}

func TestWatchlistJob_PartialOutage(t *testing.T) {
	runner := brain.New(providerFunc(func(_ context.Context, symbol string) contracts.MarketSnapshot {
		if symbol == "600519" {
			return contracts.MarketSnapshot{
				Symbol: "600519",
				Quote:  contracts.Quote{Current: 1688},
				Bars:   []contracts.Bar{{Date: "2026-03-02", Open: 1680, High: 1700, Low: 1670, Close: 1688}},
			}
		}
		return contracts.EmptySnapshot(contracts.NormalizeSymbol(symbol))
	}), brain.Sources{}, nil, nil, logger.Nop())
	job := NewWatchlistJob(runner, []string{"600519", "000001"}, "", logger.Nop())

	assert.NoError(t, job.Run(context.Background()))
}

func TestWatchlistJob_Cancelled(t *testing.T) {
	runner := &fakeRunner{}
	job := NewWatchlistJob(runner, []string{"600519", "000001"}, "", logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, job.Run(ctx))
	assert.Empty(t, runner.seen)
}
