package jobs

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/zuwa/backend/internal/brain"
	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

// DefaultSchedule is weekdays 15:30, after the A-share close
const DefaultSchedule = "0 30 15 * * 1-5"

// Runner runs one decision pipeline
type Runner interface {
	Run(ctx context.Context, req brain.RunRequest, observe brain.Observer) *contracts.DecisionRecord
}

// WatchlistJob runs the decision pipeline for every watchlist symbol
// ⭐ SSOT: 관심 종목 정기 분석은 이 Job에서만
type WatchlistJob struct {
	runner      Runner
	symbols     []string
	schedule    string
	concurrency int
	logger      *logger.Logger

	mu   sync.Mutex
	last map[string]*contracts.DecisionRecord
}

// NewWatchlistJob creates a watchlist job. An empty schedule uses DefaultSchedule.
func NewWatchlistJob(runner Runner, symbols []string, schedule string, log *logger.Logger) *WatchlistJob {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &WatchlistJob{
		runner:      runner,
		symbols:     symbols,
		schedule:    schedule,
		concurrency: 2,
		logger:      log.WithComponent("watchlist"),
		last:        make(map[string]*contracts.DecisionRecord),
	}
}

// WithConcurrency sets how many symbols are analyzed at once
func (j *WatchlistJob) WithConcurrency(n int) *WatchlistJob {
	if n > 0 {
		j.concurrency = n
	}
	return j
}

// Name returns the job name
func (j *WatchlistJob) Name() string {
	return "watchlist_analysis"
}

// Schedule returns the cron schedule
func (j *WatchlistJob) Schedule() string {
	return j.schedule
}

// Run analyzes every symbol. It fails when every symbol came back blind.
func (j *WatchlistJob) Run(ctx context.Context) error {
	if len(j.symbols) == 0 {
		j.logger.Warn("Watchlist is empty, nothing to analyze")
		return nil
	}

	j.logger.WithField("symbols", len(j.symbols)).Info("Starting watchlist analysis")

	var (
		mu     sync.Mutex
		blind  int
		counts = make(map[contracts.Rating]int)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)

	for _, symbol := range j.symbols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			record := j.runner.Run(gctx, brain.RunRequest{Symbol: symbol}, nil)

			mu.Lock()
			counts[record.Rating]++
			if blindRecord(record) {
				blind++
			}
			mu.Unlock()

			j.mu.Lock()
			j.last[record.Symbol] = record
			j.mu.Unlock()

			j.logger.WithFields(map[string]interface{}{
				"symbol":    record.Symbol,
				"rating":    record.Rating,
				"composite": record.CompositeScore,
				"run_id":    record.RunID,
			}).Debug("Symbol analyzed")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("watchlist analysis: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols": len(j.symbols),
		"blind":   blind,
		"ratings": counts,
	}).Info("Watchlist analysis completed")

	if blind == len(j.symbols) {
		return fmt.Errorf("watchlist analysis: no market data or usable analyst output for %d symbols", blind)
	}
	return nil
}

// blindRecord reports whether the run had no market data or no usable S1 output
func blindRecord(record *contracts.DecisionRecord) bool {
	if record.DataUnavailable {
		return true
	}
	for _, d := range contracts.AnalysisDomains() {
		if o, ok := record.Outputs[d]; ok && !o.Failed() {
			return false
		}
	}
	return true
}

// Latest returns the record of the most recent run for symbol
func (j *WatchlistJob) Latest(symbol string) (*contracts.DecisionRecord, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	record, ok := j.last[contracts.NormalizeSymbol(symbol)]
	return record, ok
}
