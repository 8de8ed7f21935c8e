package quality

import (
	"fmt"
	"sort"

	"github.com/wonny/zuwa/backend/internal/contracts"
)

// Gate validates a provider snapshot and strips unusable bars
type Gate struct {
	config Config
}

// Config holds quality gate thresholds
type Config struct {
	MinBars  int     `yaml:"min_bars"`  // 60 (SMA60 패턴 판정에 필요)
	MinScore float64 `yaml:"min_score"` // 0.6
}

// DefaultConfig returns the thresholds used by the provider
func DefaultConfig() Config {
	return Config{MinBars: 60, MinScore: 0.6}
}

// Report summarizes one snapshot check
type Report struct {
	Symbol    string             `json:"symbol"`
	TotalBars int                `json:"total_bars"`
	ValidBars int                `json:"valid_bars"`
	Coverage  map[string]float64 `json:"coverage"`
	Score     float64            `json:"score"`
	Issues    []string           `json:"issues,omitempty"`
	Passed    bool               `json:"passed"`
}

// NewGate creates a new Gate instance
func NewGate(config Config) *Gate {
	return &Gate{config: config}
}

// Check validates the snapshot and returns a cleaned copy
// ⭐ SSOT: S0 → S1 품질 검증
//
// 정리 규칙:
//   - 가격이 0 이하이거나 high < low 인 봉 제거
//   - 날짜 오름차순 정렬, 중복 날짜는 마지막 값 유지
//   - 시세가 비어 있으면 마지막 봉으로 채움
func (g *Gate) Check(snap contracts.MarketSnapshot) (contracts.MarketSnapshot, Report) {
	report := Report{
		Symbol:    snap.Symbol,
		TotalBars: len(snap.Bars),
	}

	bars, issues := cleanBars(snap.Bars)
	report.Issues = issues
	report.ValidBars = len(bars)

	out := snap
	out.Bars = bars
	if out.Quote.Current <= 0 && len(bars) > 0 {
		out.Quote = contracts.QuoteFromBars(bars)
		report.Issues = append(report.Issues, "quote missing, derived from last bar")
	}

	report.Coverage = coverage(out, report.TotalBars)
	report.Score = calculateScore(report.Coverage)

	if report.ValidBars < g.config.MinBars {
		report.Issues = append(report.Issues, fmt.Sprintf("only %d bars, want %d", report.ValidBars, g.config.MinBars))
	}
	report.Passed = report.ValidBars >= g.config.MinBars && report.Score >= g.config.MinScore

	return out, report
}

func cleanBars(bars []contracts.Bar) ([]contracts.Bar, []string) {
	var issues []string
	byDate := make(map[string]contracts.Bar, len(bars))
	invalid := 0

	for _, b := range bars {
		if b.Date == "" || b.Open <= 0 || b.Close <= 0 || b.High <= 0 || b.Low <= 0 || b.High < b.Low {
			invalid++
			continue
		}
		byDate[b.Date] = b
	}

	if invalid > 0 {
		issues = append(issues, fmt.Sprintf("%d invalid bars dropped", invalid))
	}
	if dup := len(bars) - invalid - len(byDate); dup > 0 {
		issues = append(issues, fmt.Sprintf("%d duplicate dates merged", dup))
	}

	cleaned := make([]contracts.Bar, 0, len(byDate))
	for _, b := range byDate {
		cleaned = append(cleaned, b)
	}
	sort.Slice(cleaned, func(i, j int) bool { return cleaned[i].Date < cleaned[j].Date })

	return cleaned, issues
}

// coverage calculates the fill ratio of each data group
func coverage(snap contracts.MarketSnapshot, totalBars int) map[string]float64 {
	cov := map[string]float64{
		"price":        0,
		"volume":       0,
		"quote":        0,
		"fundamentals": 0,
	}

	if totalBars > 0 {
		cov["price"] = float64(len(snap.Bars)) / float64(totalBars)
	}
	if len(snap.Bars) > 0 {
		traded := 0
		for _, b := range snap.Bars {
			if b.Volume > 0 {
				traded++
			}
		}
		cov["volume"] = float64(traded) / float64(len(snap.Bars))
	}
	if snap.Quote.Current > 0 {
		cov["quote"] = 1
	}

	f := snap.Fundamentals
	filled := 0
	for _, ok := range []bool{f.Industry != "", f.MarketCap > 0, f.PE != 0, f.PB > 0, f.ROE != 0} {
		if ok {
			filled++
		}
	}
	cov["fundamentals"] = float64(filled) / 5

	return cov
}

// calculateScore calculates overall quality score using weighted average
func calculateScore(coverage map[string]float64) float64 {
	// 가중치 (합계 = 1.0)
	weights := []struct {
		key    string
		weight float64
	}{
		{"price", 0.40}, // 일봉 필수
		{"volume", 0.20},
		{"quote", 0.20},
		{"fundamentals", 0.20}, // PE/PB/ROE/업종
	}

	score := 0.0
	for _, w := range weights {
		score += coverage[w.key] * w.weight
	}

	return score
}
