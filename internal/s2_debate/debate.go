package s2_debate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/internal/strategyconfig"
)

// Agent names shown in reports
const (
	NameBull = "Bull Analyst"
	NameBear = "Bear Analyst"
)

const topCases = 3

// confidence is min(max, base + 100*Σw + bias); no cases → empty
func confidence(cases []contracts.Case, p strategyconfig.Debate, bias float64) float64 {
	if len(cases) == 0 {
		return p.EmptyConfidence
	}
	return math.Min(p.MaxConfidence, p.BaseConfidence+100*totalWeight(cases)+bias)
}

func totalWeight(cases []contracts.Case) float64 {
	var sum float64
	for _, c := range cases {
		sum += c.Weight
	}
	return sum
}

// priceBand returns the move fraction for a confidence level
func priceBand(conf float64, high, mid, low float64) float64 {
	switch {
	case conf >= 80:
		return high
	case conf >= 60:
		return mid
	default:
		return low
	}
}

// projectPrice is current*(1+move) rounded to 2 decimals; nil when current ≤ 0
func projectPrice(current, move float64) *float64 {
	if current <= 0 {
		return nil
	}
	p := decimal.NewFromFloat(current).
		Mul(decimal.NewFromFloat(1 + move)).
		Round(2).
		InexactFloat64()
	return &p
}

// TargetPrice applies the bull upside bands: ≥80 +25%, ≥60 +15%, else +8%
func TargetPrice(current, conf float64) *float64 {
	return projectPrice(current, priceBand(conf, 0.25, 0.15, 0.08))
}

// RiskPrice applies the bear downside bands: ≥80 -20%, ≥60 -12%, else -5%
func RiskPrice(current, conf float64) *float64 {
	return projectPrice(current, -priceBand(conf, 0.20, 0.12, 0.05))
}

// strongest returns up to n cases by descending weight, ties in input order
func strongest(cases []contracts.Case, n int) []contracts.Case {
	sorted := make([]contracts.Case, len(cases))
	copy(sorted, cases)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Weight > sorted[j].Weight })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func summarize(label string, cases []contracts.Case, sign, priceLabel string, price *float64) string {
	var parts []string
	if len(cases) == 0 {
		parts = append(parts, fmt.Sprintf("no clear %s case", label))
	} else {
		reasons := make([]string, 0, topCases)
		for _, c := range strongest(cases, topCases) {
			reasons = append(reasons, fmt.Sprintf("%s (%s%.0f%%)", c.Factor, sign, c.Weight*100))
		}
		parts = append(parts, fmt.Sprintf("%s case: %s", label, strings.Join(reasons, ", ")))
	}
	if price != nil {
		parts = append(parts, fmt.Sprintf("%s %.2f", priceLabel, *price))
	}
	return strings.Join(parts, " | ")
}
