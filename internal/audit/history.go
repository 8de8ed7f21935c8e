package audit

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

// Analyzer summarizes a symbol's decision history
// ⭐ SSOT: 판단 이력 분석 로직은 여기서만
type Analyzer struct {
	repository contracts.DecisionRepository
	logger     *logger.Logger
}

// NewAnalyzer creates a new history analyzer
func NewAnalyzer(repository contracts.DecisionRepository, log *logger.Logger) *Analyzer {
	return &Analyzer{
		repository: repository,
		logger:     log,
	}
}

// HistoryReport represents the decision history of one symbol
type HistoryReport struct {
	Symbol  string                     `json:"symbol"`
	Records []*contracts.DecisionRecord `json:"records"`

	// 종합 점수 통계
	LatestComposite float64 `json:"latest_composite"`
	MeanComposite   float64 `json:"mean_composite"`
	MinComposite    float64 `json:"min_composite"`
	MaxComposite    float64 `json:"max_composite"`
	StdDev          float64 `json:"std_dev"`

	// 등급 분포
	RatingCounts  map[contracts.Rating]int `json:"rating_counts"`
	RatingChanges int                      `json:"rating_changes"` // 연속 레코드 간 등급 변경 횟수

	// 분석가별 실패 횟수
	Failures map[contracts.Domain]int `json:"failures,omitempty"`
}

// Analyze loads up to limit records and summarizes them
func (a *Analyzer) Analyze(ctx context.Context, symbol string, limit int) (*HistoryReport, error) {
	records, err := a.repository.ListBySymbol(ctx, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no history for %s", ErrNotFound, symbol)
	}

	report := Summarize(contracts.NormalizeSymbol(symbol), records)

	a.logger.WithFields(map[string]interface{}{
		"symbol":         report.Symbol,
		"records":        len(records),
		"mean_composite": report.MeanComposite,
		"rating_changes": report.RatingChanges,
	}).Info("Decision history analyzed")

	return report, nil
}

// Summarize computes statistics over records ordered newest first
func Summarize(symbol string, records []*contracts.DecisionRecord) *HistoryReport {
	report := &HistoryReport{
		Symbol:       symbol,
		Records:      records,
		RatingCounts: make(map[contracts.Rating]int),
		Failures:     make(map[contracts.Domain]int),
	}
	if len(records) == 0 {
		return report
	}

	composites := make(stats.Float64Data, 0, len(records))
	for i, r := range records {
		composites = append(composites, r.CompositeScore)
		report.RatingCounts[r.Rating]++
		if i > 0 && records[i-1].Rating != r.Rating {
			report.RatingChanges++
		}
		for _, d := range r.FailedDomains() {
			report.Failures[d]++
		}
	}

	report.LatestComposite = records[0].CompositeScore
	report.MeanComposite = round2(must(composites.Mean()))
	report.MinComposite = must(composites.Min())
	report.MaxComposite = must(composites.Max())
	if len(composites) > 1 {
		report.StdDev = round2(must(composites.StandardDeviationSample()))
	}

	return report
}

// must drops the error of stats functions, which only fail on empty input
func must(v float64, _ error) float64 {
	return v
}

func round2(v float64) float64 {
	r, err := stats.Round(v, 2)
	if err != nil {
		return v
	}
	return r
}
