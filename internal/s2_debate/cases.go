package s2_debate

import (
	"fmt"

	"github.com/wonny/zuwa/backend/internal/contracts"
)

// BullCases collects weighted bullish evidence from the enriched snapshot
func BullCases(snap contracts.Context) []contracts.Case {
	var cases []contracts.Case
	add := func(typ, factor string, weight float64, desc string) {
		cases = append(cases, contracts.Case{Type: typ, Factor: factor, Weight: weight, Description: desc})
	}

	// 기술적 근거
	if tech, ok := contracts.Lookup[*contracts.TechnicalDetails](snap, contracts.DomainTechnical); ok {
		if tech.Trend.ShortTerm == contracts.DirectionUp {
			add(contracts.CaseTechnical, "short_term_uptrend", 0.15, "price above the 5-day average")
		}
		if tech.Trend.MAAlignment == contracts.AlignmentBullish {
			add(contracts.CaseTechnical, "bullish_ma_alignment", 0.20, "SMA5 > SMA10 > SMA20")
		}
		if tech.Momentum.RSISignal == contracts.LevelOversold {
			add(contracts.CaseTechnical, "rsi_oversold", 0.15, fmt.Sprintf("RSI %.1f, rebound setup", tech.Momentum.RSI))
		}
		if tech.Momentum.MACDSignal == contracts.LevelGolden {
			add(contracts.CaseTechnical, "macd_golden_cross", 0.15, "MACD above its signal line")
		}
		if tech.HasPattern(contracts.PatternLimitUp) {
			add(contracts.CaseTechnical, "limit_up", 0.25, "closed limit-up")
		}
	}

	// 자금 근거
	if capital, ok := contracts.Lookup[*contracts.CapitalDetails](snap, contracts.DomainCapital); ok {
		f := capital.Flow
		if f.MainNet > 5000 {
			add(contracts.CaseCapital, "main_force_inflow", 0.25, fmt.Sprintf("main force net inflow %.0f", f.MainNet))
		}
		if f.Flow5D > 10000 {
			add(contracts.CaseCapital, "sustained_5d_inflow", 0.20, fmt.Sprintf("5-day net inflow %.0f", f.Flow5D))
		}
		if f.NorthNetToday > 1000 {
			add(contracts.CaseCapital, "northbound_buying", 0.20, fmt.Sprintf("northbound net buy %.0f", f.NorthNetToday))
		}
		if f.DragonTiger.InList && f.DragonTiger.NetAmount > 0 {
			add(contracts.CaseCapital, "dragon_tiger_buying", 0.20, fmt.Sprintf("dragon-tiger net buy %.0f", f.DragonTiger.NetAmount))
		}
	}

	// 펀더멘털 근거
	fund := snap.Market().Fundamentals
	if fund.PE > 0 && fund.PE < 20 {
		add(contracts.CaseFundamental, "low_valuation", 0.15, fmt.Sprintf("PE %.1f", fund.PE))
	}
	if fund.ROE > 15 {
		add(contracts.CaseFundamental, "high_roe", 0.15, fmt.Sprintf("ROE %.1f%%", fund.ROE))
	}

	// 촉매
	if intel, ok := contracts.Lookup[*contracts.IntelligenceDetails](snap, contracts.DomainIntelligence); ok {
		if intel.Policy.Impact == contracts.PolicyPositive {
			add(contracts.CaseCatalyst, "policy_tailwind", 0.20, "supportive policy news")
		}
		if intel.Sentiment.Overall == contracts.MoodOptimistic {
			add(contracts.CaseCatalyst, "optimistic_news", 0.15, fmt.Sprintf("%.0f%% of headlines positive", intel.Sentiment.PositiveRatio*100))
		}
	}

	return cases
}

// BearCases collects weighted bearish evidence from the enriched snapshot
func BearCases(snap contracts.Context) []contracts.Case {
	var cases []contracts.Case
	add := func(typ, factor string, weight float64, desc string) {
		cases = append(cases, contracts.Case{Type: typ, Factor: factor, Weight: weight, Description: desc})
	}

	if tech, ok := contracts.Lookup[*contracts.TechnicalDetails](snap, contracts.DomainTechnical); ok {
		if tech.Trend.ShortTerm == contracts.DirectionDown {
			add(contracts.CaseTechnical, "short_term_downtrend", 0.15, "price below the 5-day average")
		}
		if tech.Trend.MAAlignment == contracts.AlignmentBearish {
			add(contracts.CaseTechnical, "bearish_ma_alignment", 0.20, "SMA5 < SMA10 < SMA20")
		}
		if tech.Momentum.RSISignal == contracts.LevelOverbought {
			add(contracts.CaseTechnical, "rsi_overbought", 0.15, fmt.Sprintf("RSI %.1f, pullback risk", tech.Momentum.RSI))
		}
		if tech.Momentum.MACDSignal == contracts.LevelDeath {
			add(contracts.CaseTechnical, "macd_death_cross", 0.15, "MACD below its signal line")
		}
		if tech.SupportResistance.Position > 0.9 {
			add(contracts.CaseTechnical, "near_resistance", 0.15,
				fmt.Sprintf("price at %.0f%% of the 20-day range", tech.SupportResistance.Position*100))
		}
	}

	if capital, ok := contracts.Lookup[*contracts.CapitalDetails](snap, contracts.DomainCapital); ok {
		f := capital.Flow
		if f.MainNet < -5000 {
			add(contracts.CaseCapital, "main_force_outflow", 0.25, fmt.Sprintf("main force net outflow %.0f", -f.MainNet))
		}
		if f.Flow5D < -10000 {
			add(contracts.CaseCapital, "sustained_5d_outflow", 0.20, fmt.Sprintf("5-day net outflow %.0f", -f.Flow5D))
		}
		if f.NorthNet5D < -1000 {
			add(contracts.CaseCapital, "northbound_selling", 0.20, fmt.Sprintf("northbound 5-day net sell %.0f", -f.NorthNet5D))
		}
		if f.DragonTiger.InList && f.DragonTiger.NetAmount < 0 {
			add(contracts.CaseCapital, "dragon_tiger_selling", 0.20, fmt.Sprintf("dragon-tiger net sell %.0f", -f.DragonTiger.NetAmount))
		}
	}

	fund := snap.Market().Fundamentals
	if fund.PE > 50 {
		add(contracts.CaseFundamental, "rich_valuation", 0.20, fmt.Sprintf("PE %.1f", fund.PE))
	}
	if fund.ROE > 0 && fund.ROE < 5 {
		add(contracts.CaseFundamental, "weak_roe", 0.15, fmt.Sprintf("ROE %.1f%%", fund.ROE))
	}

	// 리스크
	if intel, ok := contracts.Lookup[*contracts.IntelligenceDetails](snap, contracts.DomainIntelligence); ok {
		if intel.Policy.Impact == contracts.PolicyNegative {
			add(contracts.CaseRisk, "policy_headwind", 0.25, "regulatory pressure in the news")
		}
		for _, event := range intel.Sentiment.RiskEvents {
			add(contracts.CaseRisk, "risk_event", 0.20, event)
		}
	}

	return cases
}
