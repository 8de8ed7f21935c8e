package brain

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/internal/s0_data"
	"github.com/wonny/zuwa/backend/internal/strategyconfig"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

var fixedNow = time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// fakeAnalyst runs fn as its Analyze
type fakeAnalyst struct {
	domain contracts.Domain
	fn     func(ctx context.Context, snap contracts.Context) contracts.Output
}

func (f *fakeAnalyst) Name() contracts.Domain { return f.domain }

func (f *fakeAnalyst) Analyze(ctx context.Context, snap contracts.Context) contracts.Output {
	return f.fn(ctx, snap)
}

func fixed(domain contracts.Domain, signal contracts.Signal, conf float64) *fakeAnalyst {
	return &fakeAnalyst{domain: domain, fn: func(context.Context, contracts.Context) contracts.Output {
		return contracts.NewOutput(domain, AgentName(domain), signal, conf, "ok", nil, fixedNow)
	}}
}

type providerFunc func(ctx context.Context, symbol string) contracts.MarketSnapshot

func (f providerFunc) Snapshot(ctx context.Context, symbol string) contracts.MarketSnapshot {
	return f(ctx, symbol)
}

func staticProvider(snap contracts.MarketSnapshot) contracts.MarketDataProvider {
	return providerFunc(func(context.Context, string) contracts.MarketSnapshot { return snap })
}

var testSnapshot = contracts.MarketSnapshot{
	Symbol: "600519",
	Name:   "贵州茅台",
	Quote:  contracts.Quote{Current: 100},
	Bars:   []contracts.Bar{{Date: "2026-03-02", Open: 99, High: 101, Low: 98, Close: 100}},
}

func neutralS1() []contracts.Analyst {
	var out []contracts.Analyst
	for _, d := range contracts.AnalysisDomains() {
		out = append(out, fixed(d, contracts.SignalNeutral, 20))
	}
	return out
}

func neutralS2() []contracts.Analyst {
	return []contracts.Analyst{
		fixed(contracts.DomainBull, contracts.SignalBullish, 50),
		fixed(contracts.DomainBear, contracts.SignalBearish, 50),
	}
}

func TestOrchestrator_Run_AllNeutral(t *testing.T) {
	o := NewOrchestrator(staticProvider(testSnapshot), neutralS1(), neutralS2(), nil, logger.Nop(), WithClock(clock))

	record := o.Run(context.Background(), RunRequest{Symbol: "600519"}, nil)

	require.NotNil(t, record)
	assert.Equal(t, "600519", record.Symbol)
	assert.Equal(t, "贵州茅台", record.Name)
	assert.InDelta(t, 50.0, record.CompositeScore, 1e-9)
	assert.Equal(t, contracts.RatingHold, record.Rating)
	assert.InDelta(t, 100.0, record.RatingConfidence, 1e-9)
	assert.Len(t, record.Outputs, 7)
	assert.Empty(t, record.FailedDomains())
	assert.Equal(t, fixedNow, record.Timestamp)
	assert.NotEmpty(t, record.ConfigHash)
	assert.Regexp(t, `^run_20260302_153000_[0-9a-f]{8}$`, record.RunID)
}

func TestOrchestrator_Run_NameAndRunIDOverride(t *testing.T) {
	o := NewOrchestrator(staticProvider(testSnapshot), neutralS1(), neutralS2(), nil, logger.Nop())

	record := o.Run(context.Background(), RunRequest{Symbol: "600519", Name: "Moutai", RunID: "run_custom"}, nil)

	assert.Equal(t, "Moutai", record.Name)
	assert.Equal(t, "run_custom", record.RunID)
}

func TestOrchestrator_Run_Timeout(t *testing.T) {
	analysts := neutralS1()
	analysts[1] = &fakeAnalyst{domain: contracts.DomainCapital, fn: func(ctx context.Context, _ contracts.Context) contracts.Output {
		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
		}
		return contracts.NewOutput(contracts.DomainCapital, "late", contracts.SignalBullish, 100, "late", nil, fixedNow)
	}}

	o := NewOrchestrator(staticProvider(testSnapshot), analysts, neutralS2(), nil, logger.Nop(),
		WithTimeout(50*time.Millisecond))

	start := time.Now()
	record := o.Run(context.Background(), RunRequest{Symbol: "600519"}, nil)

	assert.Less(t, time.Since(start), 2*time.Second)
	capital := record.Outputs[contracts.DomainCapital]
	assert.True(t, capital.Failed())
	assert.Equal(t, "timeout after 50ms", capital.Summary)
	assert.Equal(t, contracts.SignalNeutral, capital.Signal)
	assert.Equal(t, 0.0, capital.Confidence)
	assert.Equal(t, "Capital Flow Analyst", capital.AgentName)
	assert.Equal(t, []contracts.Domain{contracts.DomainCapital}, record.FailedDomains())
	assert.NotContains(t, record.IndividualScores, contracts.ScoreCapital)
}

func TestOrchestrator_Run_Panic(t *testing.T) {
	debaters := neutralS2()
	debaters[0] = &fakeAnalyst{domain: contracts.DomainBull, fn: func(context.Context, contracts.Context) contracts.Output {
		panic("boom")
	}}

	o := NewOrchestrator(staticProvider(testSnapshot), neutralS1(), debaters, nil, logger.Nop())
	record := o.Run(context.Background(), RunRequest{Symbol: "600519"}, nil)

	bull := record.Outputs[contracts.DomainBull]
	assert.True(t, bull.Failed())
	assert.Equal(t, "panic: boom", bull.Error)
	assert.Nil(t, record.Recommendation.TargetPrice)
	assert.False(t, record.Outputs[contracts.DomainBear].Failed())
}

func TestOrchestrator_Run_WrongDomain(t *testing.T) {
	analysts := neutralS1()
	analysts[0] = &fakeAnalyst{domain: contracts.DomainTechnical, fn: func(context.Context, contracts.Context) contracts.Output {
		return contracts.NewOutput(contracts.DomainSector, "x", contracts.SignalBullish, 90, "", nil, fixedNow)
	}}

	o := NewOrchestrator(staticProvider(testSnapshot), analysts, neutralS2(), nil, logger.Nop())
	record := o.Run(context.Background(), RunRequest{Symbol: "600519"}, nil)

	assert.True(t, record.Outputs[contracts.DomainTechnical].Failed())
	assert.False(t, record.Outputs[contracts.DomainSector].Failed())
}

func TestOrchestrator_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(staticProvider(testSnapshot), neutralS1(), neutralS2(), nil, logger.Nop())
	record := o.Run(ctx, RunRequest{Symbol: "600519"}, nil)

	require.NotNil(t, record)
	assert.Len(t, record.FailedDomains(), 7)
	assert.Equal(t, 50.0, record.CompositeScore)
	assert.Contains(t, record.Reasoning, "insufficient data")
}

func TestOrchestrator_Run_StageIsolation(t *testing.T) {
	var mu sync.Mutex
	seen := map[contracts.Domain][]contracts.Domain{}
	record := func(d contracts.Domain) *fakeAnalyst {
		return &fakeAnalyst{domain: d, fn: func(_ context.Context, snap contracts.Context) contracts.Output {
			mu.Lock()
			seen[d] = snap.Domains()
			mu.Unlock()
			return contracts.NewOutput(d, string(d), contracts.SignalNeutral, 0, "", nil, fixedNow)
		}}
	}

	var s1 []contracts.Analyst
	for _, d := range contracts.AnalysisDomains() {
		s1 = append(s1, record(d))
	}
	s2 := []contracts.Analyst{record(contracts.DomainBull), record(contracts.DomainBear)}

	NewOrchestrator(staticProvider(testSnapshot), s1, s2, nil, logger.Nop()).
		Run(context.Background(), RunRequest{Symbol: "600519"}, nil)

	for _, d := range contracts.AnalysisDomains() {
		assert.Empty(t, seen[d], "S1 analyst %s sees only the root snapshot", d)
	}
	want := []contracts.Domain{
		contracts.DomainCapital, contracts.DomainIntelligence, contracts.DomainSector,
		contracts.DomainSentiment, contracts.DomainTechnical,
	}
	assert.Equal(t, want, seen[contracts.DomainBull])
	assert.Equal(t, want, seen[contracts.DomainBear], "bear does not see bull")
}

func TestOrchestrator_Run_EmptyMarket(t *testing.T) {
	cfg := strategyconfig.Default()
	o := New(nil, Sources{}, nil, cfg, logger.Nop())

	record := o.Run(context.Background(), RunRequest{Symbol: "sz000001"}, nil)

	require.NotNil(t, record)
	assert.Equal(t, "000001", record.Symbol)
	tech := record.Outputs[contracts.DomainTechnical]
	assert.Equal(t, contracts.SignalNeutral, tech.Signal)
	assert.Equal(t, 0.0, tech.Confidence)
	assert.Nil(t, record.Recommendation.TargetPrice)
	assert.Nil(t, record.Recommendation.StopLoss)
	assert.True(t, record.DataUnavailable)
	assert.Empty(t, record.FailedDomains(), "analysts degrade without failing")
}

func TestOrchestrator_Run_DataAvailable(t *testing.T) {
	o := NewOrchestrator(staticProvider(testSnapshot), neutralS1(), neutralS2(), nil, logger.Nop())
	record := o.Run(context.Background(), RunRequest{Symbol: "600519"}, nil)

	assert.False(t, record.DataUnavailable)
}

func TestOrchestrator_Run_SanitizesOutput(t *testing.T) {
	analysts := neutralS1()
	analysts[0] = &fakeAnalyst{domain: contracts.DomainTechnical, fn: func(context.Context, contracts.Context) contracts.Output {
		return contracts.Output{Domain: contracts.DomainTechnical, Signal: "UP", Confidence: 250, Summary: "hot"}
	}}
	analysts[1] = &fakeAnalyst{domain: contracts.DomainCapital, fn: func(context.Context, contracts.Context) contracts.Output {
		return contracts.Output{Domain: contracts.DomainCapital, Signal: contracts.SignalBearish, Confidence: -20, Error: "partial"}
	}}

	o := NewOrchestrator(staticProvider(testSnapshot), analysts, neutralS2(), nil, logger.Nop())
	record := o.Run(context.Background(), RunRequest{Symbol: "600519"}, nil)

	tech := record.Outputs[contracts.DomainTechnical]
	assert.Equal(t, contracts.SignalNeutral, tech.Signal)
	assert.Equal(t, 100.0, tech.Confidence)
	assert.Equal(t, "hot", tech.Summary)
	assert.Equal(t, AgentName(contracts.DomainTechnical), tech.AgentName)

	capital := record.Outputs[contracts.DomainCapital]
	assert.Equal(t, 0.0, capital.Confidence)
	assert.Equal(t, "partial", capital.Error)

	for d, out := range record.Outputs {
		assert.True(t, out.Signal.IsValid(), d)
		assert.GreaterOrEqual(t, out.Confidence, 0.0, d)
		assert.LessOrEqual(t, out.Confidence, 100.0, d)
	}
}

func TestOrchestrator_Run_Events(t *testing.T) {
	var mu sync.Mutex
	var events []contracts.StageEvent
	observe := func(e contracts.StageEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}

	o := NewOrchestrator(staticProvider(testSnapshot), neutralS1(), neutralS2(), nil, logger.Nop())
	o.Run(context.Background(), RunRequest{Symbol: "600519"}, observe)

	// 4 stages × (started + completed) + 7 analysts × (started + completed)
	require.Len(t, events, 22)
	assert.Equal(t, contracts.StageData, events[0].Stage)
	assert.Equal(t, contracts.EventStarted, events[0].Status)
	last := events[len(events)-1]
	assert.Equal(t, contracts.StageChief, last.Stage)
	assert.Equal(t, contracts.EventCompleted, last.Status)
	assert.Equal(t, "HOLD 50.0", last.Message)

	perDomain := map[contracts.Domain]int{}
	for _, e := range events {
		if e.Domain != "" {
			perDomain[e.Domain]++
		}
	}
	assert.Len(t, perDomain, 7)
	for d, n := range perDomain {
		assert.Equal(t, 2, n, d)
	}
}

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Save(ctx context.Context, record *contracts.DecisionRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockRepo) GetByRunID(ctx context.Context, runID string) (*contracts.DecisionRecord, error) {
	args := m.Called(ctx, runID)
	r, _ := args.Get(0).(*contracts.DecisionRecord)
	return r, args.Error(1)
}

func (m *mockRepo) ListBySymbol(ctx context.Context, symbol string, limit int) ([]*contracts.DecisionRecord, error) {
	args := m.Called(ctx, symbol, limit)
	r, _ := args.Get(0).([]*contracts.DecisionRecord)
	return r, args.Error(1)
}

type fakeRecorder struct {
	mu        sync.Mutex
	analysts  map[string]string
	stages    []string
	decisions int
	errors    []string
}

func (f *fakeRecorder) RecordAnalyst(domain, status string, _ float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.analysts == nil {
		f.analysts = map[string]string{}
	}
	f.analysts[domain] = status
}

func (f *fakeRecorder) RecordStage(stage string, _ float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages = append(f.stages, stage)
}

func (f *fakeRecorder) RecordDecision(string, string, float64) { f.decisions++ }

func (f *fakeRecorder) RecordError(kind string) { f.errors = append(f.errors, kind) }

func TestOrchestrator_Run_PersistsAndRecords(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*contracts.DecisionRecord")).Return(errors.New("db down"))
	rec := &fakeRecorder{}

	analysts := neutralS1()
	analysts[2] = &fakeAnalyst{domain: contracts.DomainIntelligence, fn: func(context.Context, contracts.Context) contracts.Output {
		panic("nil map")
	}}

	o := NewOrchestrator(staticProvider(testSnapshot), analysts, neutralS2(), nil, logger.Nop(),
		WithRepository(repo), WithMetrics(rec))
	record := o.Run(context.Background(), RunRequest{Symbol: "600519"}, nil)

	require.NotNil(t, record, "save failure does not lose the record")
	repo.AssertCalled(t, "Save", mock.Anything, record)
	assert.Equal(t, "failed", rec.analysts["intelligence"])
	assert.Equal(t, "completed", rec.analysts["technical"])
	assert.Equal(t, []string{"S0_DATA", "S1_ANALYSTS", "S2_DEBATE", "S3_CHIEF"}, rec.stages)
	assert.Equal(t, 1, rec.decisions)
	assert.Equal(t, []string{"repository"}, rec.errors)
}

func TestOrchestrator_Run_PersistsAfterCancel(t *testing.T) {
	liveCtx := mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()
		return ctx.Err() == nil && hasDeadline
	})
	repo := new(mockRepo)
	repo.On("Save", liveCtx, mock.AnythingOfType("*contracts.DecisionRecord")).Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(staticProvider(testSnapshot), neutralS1(), neutralS2(), nil, logger.Nop(),
		WithRepository(repo))
	record := o.Run(ctx, RunRequest{Symbol: "600519"}, nil)

	assert.Len(t, record.FailedDomains(), 7)
	repo.AssertExpectations(t)
}

func TestOrchestrator_Run_Fixture(t *testing.T) {
	src, err := s0_data.LoadFixtures("../s0_data/testdata/600519.json")
	require.NoError(t, err)

	provider := s0_data.NewProvider(src, nil, 120, logger.Nop())
	sources := Sources{FundFlow: src, News: src, Sector: src, Crowd: src}
	o := New(provider, sources, nil, strategyconfig.Default(), logger.Nop(), WithClock(clock))

	first := o.Run(context.Background(), RunRequest{Symbol: "600519", RunID: "run_a"}, nil)
	second := o.Run(context.Background(), RunRequest{Symbol: "600519", RunID: "run_a"}, nil)

	assert.Empty(t, first.FailedDomains())
	assert.Len(t, first.IndividualScores, 7)
	assert.Greater(t, first.CompositeScore, 50.0, "fixture is constructive across domains")
	require.NotNil(t, first.Recommendation.TargetPrice)
	require.NotNil(t, first.Recommendation.StopLoss)
	assert.Greater(t, *first.Recommendation.TargetPrice, *first.Recommendation.StopLoss)

	assert.Equal(t, first.CompositeScore, second.CompositeScore)
	assert.Equal(t, first.Rating, second.Rating)
	assert.Equal(t, first.IndividualScores, second.IndividualScores)
	assert.Equal(t, first.Reasoning, second.Reasoning)
}

func TestNewRunID(t *testing.T) {
	a := NewRunID(fixedNow)
	b := NewRunID(fixedNow)

	assert.True(t, regexp.MustCompile(`^run_20260302_153000_[0-9a-f]{8}$`).MatchString(a))
	assert.NotEqual(t, a, b)
}
