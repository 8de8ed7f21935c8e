package s1_analysts

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

const (
	sectorK   = 1.5
	sectorCap = 100.0

	undervaluedRatio = 0.8
	overvaluedRatio  = 1.2

	// board change (%) beyond which the sector counts as trending
	trendDayPct  = 1.0
	trendWeekPct = 3.0
)

// SectorAnalyst scores the industry board trend and relative valuation
type SectorAnalyst struct {
	source contracts.SectorSource
	logger *logger.Logger
}

// NewSectorAnalyst creates a new sector analyst
func NewSectorAnalyst(source contracts.SectorSource, log *logger.Logger) *SectorAnalyst {
	return &SectorAnalyst{source: source, logger: log}
}

// Name returns the context key
func (a *SectorAnalyst) Name() contracts.Domain { return contracts.DomainSector }

// Analyze computes the sector view
func (a *SectorAnalyst) Analyze(ctx context.Context, snap contracts.Context) contracts.Output {
	fundamentals := snap.Market().Fundamentals
	profile := contracts.SectorProfile{Name: fundamentals.Industry, Trend: contracts.TrendFlat}

	if a.source != nil && fundamentals.Industry != "" {
		p, err := a.source.Sector(ctx, fundamentals.Industry)
		if err != nil {
			a.logger.WithError(err).WithField("industry", fundamentals.Industry).Warn("Sector profile unavailable")
		} else {
			profile = p
		}
	}
	if profile.Trend == "" {
		profile.Trend = TrendFromChanges(profile.DayChange, profile.WeekChange)
	}

	details := &contracts.SectorDetails{
		Profile:   profile,
		Valuation: CompareValuation(fundamentals.PE, profile.MedianPE),
	}
	score := sectorScore(details)
	details.Score = score

	a.logger.WithFields(map[string]interface{}{
		"symbol":    snap.Symbol(),
		"industry":  profile.Name,
		"trend":     profile.Trend,
		"valuation": details.Valuation.Level,
		"score":     score,
	}).Debug("Calculated sector score")

	return scoredOutput(contracts.DomainSector, NameSector, score, sectorK, sectorCap, sectorSummary(details), details)
}

// TrendFromChanges labels a board by its day and week change
func TrendFromChanges(dayChange, weekChange float64) contracts.Trend {
	switch {
	case weekChange > trendWeekPct || (dayChange > trendDayPct && weekChange >= 0):
		return contracts.TrendUp
	case weekChange < -trendWeekPct || (dayChange < -trendDayPct && weekChange <= 0):
		return contracts.TrendDown
	default:
		return contracts.TrendFlat
	}
}

// CompareValuation places stock PE against the sector median.
// Non-positive PE on either side is "fair".
func CompareValuation(stockPE, sectorMedianPE float64) contracts.ValuationComparison {
	v := contracts.ValuationComparison{
		StockPE:        stockPE,
		SectorMedianPE: sectorMedianPE,
		Level:          contracts.ValuationFair,
	}
	if stockPE <= 0 || sectorMedianPE <= 0 {
		return v
	}

	switch {
	case stockPE < sectorMedianPE*undervaluedRatio:
		v.Level = contracts.ValuationUndervalued
	case stockPE > sectorMedianPE*overvaluedRatio:
		v.Level = contracts.ValuationOvervalued
	}
	return v
}

func sectorScore(d *contracts.SectorDetails) float64 {
	score := baseline

	switch d.Profile.Trend {
	case contracts.TrendUp:
		score += 15
	case contracts.TrendDown:
		score -= 15
	}

	switch d.Valuation.Level {
	case contracts.ValuationUndervalued:
		score += 10
	case contracts.ValuationOvervalued:
		score -= 10
	}

	return contracts.ClampScore(score)
}

func sectorSummary(d *contracts.SectorDetails) string {
	var parts []string
	if d.Profile.Name != "" {
		parts = append(parts, fmt.Sprintf("%s trend %s", d.Profile.Name, d.Profile.Trend))
	}
	if d.Profile.Rank > 0 {
		parts = append(parts, fmt.Sprintf("rank %d/%d", d.Profile.Rank, d.Profile.BoardCount))
	}
	if d.Valuation.Level != contracts.ValuationFair {
		parts = append(parts, fmt.Sprintf("valuation %s (PE %.1f vs %.1f)",
			d.Valuation.Level, d.Valuation.StockPE, d.Valuation.SectorMedianPE))
	}
	if len(parts) == 0 {
		return "sector neutral"
	}
	return strings.Join(parts, " | ")
}
