package brain

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/internal/s3_chief"
	"github.com/wonny/zuwa/backend/internal/strategyconfig"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

// DefaultTimeout per-analyst budget when the strategy config leaves it unset
const DefaultTimeout = 10 * time.Second

// persistTimeout bounds the record save, which outlives the caller's context
const persistTimeout = 5 * time.Second

// Recorder receives pipeline metrics (pkg/metrics.Recorder)
type Recorder interface {
	RecordAnalyst(domain, status string, seconds float64)
	RecordStage(stage string, seconds float64)
	RecordDecision(symbol, rating string, composite float64)
	RecordError(kind string)
}

// Observer receives stage events as they happen. Called from analyst goroutines.
type Observer func(event contracts.StageEvent)

// Orchestrator coordinates the S0 → S1 → S2 → S3 pipeline
// ⭐ SSOT: 파이프라인 조율은 여기서만
//
// 분석가 간 공유 상태는 Context 스냅샷뿐이다. 각 barrier 이후에만 With()로 병합한다.
type Orchestrator struct {
	// Stage components
	provider contracts.MarketDataProvider
	analysts []contracts.Analyst // S1 fan-out
	debaters []contracts.Analyst // S2 fan-out
	chief    *s3_chief.Chief

	timeout    time.Duration
	configHash string

	repo    contracts.DecisionRepository
	metrics Recorder
	now     func() time.Time

	logger *logger.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithRepository persists every decision record
func WithRepository(repo contracts.DecisionRepository) Option {
	return func(o *Orchestrator) { o.repo = repo }
}

// WithMetrics records analyst and stage metrics
func WithMetrics(m Recorder) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock overrides the decision timestamp source
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithTimeout overrides the per-analyst timeout
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	provider contracts.MarketDataProvider,
	analysts []contracts.Analyst,
	debaters []contracts.Analyst,
	cfg *strategyconfig.Config,
	log *logger.Logger,
	opts ...Option,
) *Orchestrator {
	if cfg == nil {
		cfg = strategyconfig.Default()
	}

	o := &Orchestrator{
		provider: provider,
		analysts: analysts,
		debaters: debaters,
		chief:    s3_chief.New(cfg, log),
		timeout:  cfg.Analysts.Timeout,
		now:      time.Now,
		logger:   log.WithComponent("brain"),
	}
	if o.timeout <= 0 {
		o.timeout = DefaultTimeout
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		o.logger.WithError(err).Warn("Failed to hash strategy config")
	}
	o.configHash = hash

	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunRequest identifies the instrument to analyze
type RunRequest struct {
	Symbol string
	Name   string // 비어 있으면 시세의 종목명 사용
	RunID  string // 비어 있으면 생성
}

// Run executes the complete pipeline and always returns a record
// S0 → S1 (×5) → S2 (×2) → S3
func (o *Orchestrator) Run(ctx context.Context, req RunRequest, observe Observer) *contracts.DecisionRecord {
	startTime := o.now()
	if observe == nil {
		observe = func(contracts.StageEvent) {}
	}

	runID := req.RunID
	if runID == "" {
		runID = NewRunID(startTime)
	}
	log := o.logger.WithRun(runID, req.Symbol)
	log.WithField("config_hash", o.configHash).Info("Starting pipeline run")

	// S0: Market data
	market := o.runS0(ctx, req.Symbol, observe)
	if market.IsEmpty() {
		log.Warn("Market data unavailable, analysts will run on an empty snapshot")
		o.recordError("provider")
	}
	root := contracts.NewContext(market)

	// S1: Domain analysts
	stage1 := o.runStage(ctx, contracts.StageAnalysts, o.analysts, root, observe)
	afterS1, err := root.With(stage1...)
	if err != nil {
		// 중복 도메인은 분석가 구성 오류
		log.WithError(err).Error("Failed to merge S1 outputs")
		afterS1 = mergeUnique(root, stage1)
	}

	// S2: Bull / Bear
	stage2 := o.runStage(ctx, contracts.StageDebate, o.debaters, afterS1, observe)
	final, err := afterS1.With(stage2...)
	if err != nil {
		log.WithError(err).Error("Failed to merge S2 outputs")
		final = mergeUnique(afterS1, stage2)
	}

	// S3: Chief
	chiefStart := time.Now()
	observe(contracts.StageEvent{Stage: contracts.StageChief, Status: contracts.EventStarted})

	name := req.Name
	if name == "" {
		name = market.Name
	}
	record := o.chief.Decide(final.Symbol(), name, final.Outputs(), o.now())
	record.RunID = runID
	record.ConfigHash = o.configHash
	record.DataUnavailable = market.IsEmpty()

	o.recordStage(contracts.StageChief, time.Since(chiefStart))
	observe(contracts.StageEvent{
		Stage:      contracts.StageChief,
		Status:     contracts.EventCompleted,
		Confidence: record.RatingConfidence,
		Message:    fmt.Sprintf("%s %.1f", record.Rating.Label(), record.CompositeScore),
		DurationMS: time.Since(chiefStart).Milliseconds(),
	})
	if o.metrics != nil {
		o.metrics.RecordDecision(record.Symbol, string(record.Rating), record.CompositeScore)
	}

	o.persist(ctx, record, log)

	log.WithFields(map[string]interface{}{
		"rating":    record.Rating,
		"composite": record.CompositeScore,
		"failed":    len(record.FailedDomains()),
		"duration":  time.Since(startTime).String(),
	}).Info("Pipeline run completed")

	return record
}

// runS0 loads the root snapshot. The provider never errors.
func (o *Orchestrator) runS0(ctx context.Context, symbol string, observe Observer) contracts.MarketSnapshot {
	start := time.Now()
	observe(contracts.StageEvent{Stage: contracts.StageData, Status: contracts.EventStarted})

	var market contracts.MarketSnapshot
	if o.provider == nil {
		market = contracts.EmptySnapshot(symbol)
	} else {
		market = o.provider.Snapshot(ctx, symbol)
	}
	if market.Symbol == "" {
		market.Symbol = contracts.NormalizeSymbol(symbol)
	}

	status, msg := contracts.EventCompleted, fmt.Sprintf("%d bars", len(market.Bars))
	if market.IsEmpty() {
		status, msg = contracts.EventFailed, "market data unavailable"
	}
	o.recordStage(contracts.StageData, time.Since(start))
	observe(contracts.StageEvent{
		Stage:      contracts.StageData,
		Status:     status,
		Message:    msg,
		DurationMS: time.Since(start).Milliseconds(),
	})
	return market
}

// runStage fans out analysts over the same snapshot and waits for all of them (barrier).
// Outputs keep the analyst order.
func (o *Orchestrator) runStage(ctx context.Context, stage contracts.Stage, analysts []contracts.Analyst, snap contracts.Context, observe Observer) []contracts.Output {
	start := time.Now()
	o.logger.WithFields(map[string]interface{}{
		"stage":    stage.ShortName(),
		"analysts": len(analysts),
	}).Info("Stage started")
	observe(contracts.StageEvent{Stage: stage, Status: contracts.EventStarted})

	outputs := make([]contracts.Output, len(analysts))
	var g errgroup.Group
	for i, a := range analysts {
		i, a := i, a
		g.Go(func() error {
			outputs[i] = o.runAnalyst(ctx, stage, a, snap, observe)
			return nil
		})
	}
	_ = g.Wait() // 분석가는 에러를 반환하지 않음

	failed := 0
	for _, out := range outputs {
		if out.Failed() {
			failed++
		}
	}

	o.recordStage(stage, time.Since(start))
	o.logger.WithFields(map[string]interface{}{
		"stage":    stage.ShortName(),
		"failed":   failed,
		"duration": time.Since(start).String(),
	}).Info("Stage completed")
	observe(contracts.StageEvent{
		Stage:      stage,
		Status:     contracts.EventCompleted,
		Message:    fmt.Sprintf("%d/%d analysts succeeded", len(outputs)-failed, len(outputs)),
		DurationMS: time.Since(start).Milliseconds(),
	})

	return outputs
}

// runAnalyst isolates one analyst: timeout, panic recovery and domain check
func (o *Orchestrator) runAnalyst(ctx context.Context, stage contracts.Stage, a contracts.Analyst, snap contracts.Context, observe Observer) contracts.Output {
	domain := a.Name()
	name := AgentName(domain)
	start := time.Now()
	observe(contracts.StageEvent{Stage: stage, Domain: domain, Status: contracts.EventStarted})

	actx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	done := make(chan contracts.Output, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				o.logger.WithFields(map[string]interface{}{
					"domain": domain,
					"panic":  fmt.Sprint(r),
					"stack":  string(debug.Stack()),
				}).Error("Analyst panicked")
				done <- contracts.FailureOutput(domain, name, fmt.Sprintf("panic: %v", r), o.now())
			}
		}()
		done <- a.Analyze(actx, snap)
	}()

	var out contracts.Output
	select {
	case out = <-done:
	case <-actx.Done():
	}

	status := "completed"
	switch {
	case ctx.Err() != nil:
		status = "failed"
		out = contracts.FailureOutput(domain, name, fmt.Sprintf("cancelled: %v", ctx.Err()), o.now())
	case actx.Err() != nil:
		// 기한 이후 도착한 결과도 버린다. 늦은 goroutine은 버퍼 채널에 쓰고 종료
		status = "timeout"
		out = contracts.FailureOutput(domain, name, fmt.Sprintf("timeout after %s", o.timeout), o.now())
	default:
		if out.Domain == "" {
			out.Domain = domain
		}
		if out.Domain != domain {
			out = contracts.FailureOutput(domain, name, fmt.Sprintf("analyst wrote domain %q", out.Domain), o.now())
		}
		if out.AgentName == "" {
			out.AgentName = name
		}
		// 계약 강제: confidence [0,100], signal 3종
		cause := out.Error
		out = contracts.NewOutput(out.Domain, out.AgentName, out.Signal, out.Confidence, out.Summary, out.Details, out.Timestamp)
		out.Error = cause
		if out.Failed() {
			status = "failed"
		}
	}

	elapsed := time.Since(start)
	if o.metrics != nil {
		o.metrics.RecordAnalyst(string(domain), status, elapsed.Seconds())
	}

	event := contracts.StageEvent{
		Stage:      stage,
		Domain:     domain,
		Status:     contracts.EventCompleted,
		Signal:     out.Signal,
		Confidence: out.Confidence,
		Message:    out.Summary,
		DurationMS: elapsed.Milliseconds(),
	}
	if out.Failed() {
		event.Status = contracts.EventFailed
		event.Message = out.Error
		o.logger.WithFields(map[string]interface{}{
			"domain": domain,
			"cause":  out.Error,
		}).Warn("Analyst failed")
	}
	observe(event)

	return out
}

func (o *Orchestrator) persist(ctx context.Context, record *contracts.DecisionRecord, log *logger.Logger) {
	if o.repo == nil {
		return
	}
	// 요청이 취소되어도 degraded 레코드는 저장
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := o.repo.Save(sctx, record); err != nil {
		log.WithError(err).Warn("Failed to save decision record")
		o.recordError("repository")
	}
}

func (o *Orchestrator) recordStage(stage contracts.Stage, d time.Duration) {
	if o.metrics != nil {
		o.metrics.RecordStage(stage.String(), d.Seconds())
	}
}

func (o *Orchestrator) recordError(kind string) {
	if o.metrics != nil {
		o.metrics.RecordError(kind)
	}
}

// mergeUnique keeps the first output per domain
func mergeUnique(c contracts.Context, outputs []contracts.Output) contracts.Context {
	for _, out := range outputs {
		next, err := c.With(out)
		if err == nil {
			c = next
		}
	}
	return c
}

// NewRunID returns run_YYYYMMDD_HHMMSS_xxxxxxxx
func NewRunID(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("run_%s_%s", t.Format("20060102_150405"), suffix)
}
