package s1_analysts

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

const (
	intelligenceK   = 1.5
	intelligenceCap = 90.0
	maxRiskEvents   = 3
	maxHotTopics    = 3
	optimisticRatio = 0.6
	pessimistRatio  = 0.4
)

// Keyword lists (headline text is Chinese)
var (
	policyPositiveWords = []string{"支持", "鼓励", "利好", "扶持", "优惠", "补贴"}
	policyNegativeWords = []string{"监管", "限制", "禁止", "处罚", "风险", "整治"}
	positiveWords       = []string{"增长", "上涨", "利好", "突破", "超预期", "强劲", "复苏", "创新", "盈利"}
	negativeWords       = []string{"下跌", "亏损", "风险", "暴雷", "监管", "调查", "减持", "解禁", "下滑", "预警"}
	riskWords           = []string{"风险", "暴雷", "调查", "处罚", "减持", "解禁", "亏损"}
)

// IntelligenceAnalyst scores news tone, policy impact and risk events
type IntelligenceAnalyst struct {
	source contracts.NewsSource
	limit  int
	logger *logger.Logger
}

// NewIntelligenceAnalyst creates a new intelligence analyst
func NewIntelligenceAnalyst(source contracts.NewsSource, limit int, log *logger.Logger) *IntelligenceAnalyst {
	if limit <= 0 {
		limit = 20
	}
	return &IntelligenceAnalyst{source: source, limit: limit, logger: log}
}

// Name returns the context key
func (a *IntelligenceAnalyst) Name() contracts.Domain { return contracts.DomainIntelligence }

// Analyze computes the news/policy view. No news is a neutral view.
func (a *IntelligenceAnalyst) Analyze(ctx context.Context, snap contracts.Context) contracts.Output {
	news := []contracts.NewsItem{}
	if a.source != nil {
		items, err := a.source.News(ctx, snap.Symbol(), a.limit)
		if err != nil {
			a.logger.WithError(err).WithField("symbol", snap.Symbol()).Warn("News unavailable, treating as no news")
		} else if items != nil {
			news = items
		}
	}

	details := &contracts.IntelligenceDetails{
		News:      news,
		Policy:    analyzePolicy(news, snap.Market().Fundamentals.Industry),
		Sentiment: analyzeNewsSentiment(news),
	}
	score := intelligenceScore(details)
	details.Score = score

	a.logger.WithFields(map[string]interface{}{
		"symbol":      snap.Symbol(),
		"news":        len(news),
		"policy":      details.Policy.Impact,
		"mood":        details.Sentiment.Overall,
		"risk_events": len(details.Sentiment.RiskEvents),
		"score":       score,
	}).Debug("Calculated intelligence score")

	return scoredOutput(contracts.DomainIntelligence, NameIntelligence, score, intelligenceK, intelligenceCap,
		intelligenceSummary(details), details)
}

func newsText(item contracts.NewsItem) string {
	return item.Title + " " + item.Summary
}

func countWords(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

func containsAny(text string, words []string) bool {
	return countWords(text, words) > 0
}

func analyzePolicy(news []contracts.NewsItem, industry string) contracts.PolicyDetails {
	p := contracts.PolicyDetails{Impact: contracts.PolicyNeutral, Industry: industry}
	for _, item := range news {
		text := newsText(item)
		p.PositiveHits += countWords(text, policyPositiveWords)
		p.NegativeHits += countWords(text, policyNegativeWords)
	}

	switch {
	case p.PositiveHits > p.NegativeHits:
		p.Impact = contracts.PolicyPositive
	case p.NegativeHits > p.PositiveHits:
		p.Impact = contracts.PolicyNegative
	}
	return p
}

func analyzeNewsSentiment(news []contracts.NewsItem) contracts.NewsSentiment {
	s := contracts.NewsSentiment{
		Overall:       contracts.MoodNeutral,
		PositiveRatio: 0.5,
		HotTopics:     []string{},
		RiskEvents:    []string{},
		NewsCount:     len(news),
	}
	if len(news) == 0 {
		return s
	}

	positive := 0
	for _, item := range news {
		text := newsText(item)
		pos, neg := countWords(text, positiveWords), countWords(text, negativeWords)
		if pos > neg {
			positive++
			if len(s.HotTopics) < maxHotTopics {
				s.HotTopics = append(s.HotTopics, item.Title)
			}
		}
		if containsAny(text, riskWords) && len(s.RiskEvents) < maxRiskEvents {
			s.RiskEvents = append(s.RiskEvents, item.Title)
		}
	}

	ratio := float64(positive) / float64(len(news))
	switch {
	case ratio > optimisticRatio:
		s.Overall = contracts.MoodOptimistic
	case ratio < pessimistRatio:
		s.Overall = contracts.MoodPessimistic
	}
	s.PositiveRatio = round2(ratio)
	return s
}

func intelligenceScore(d *contracts.IntelligenceDetails) float64 {
	score := baseline

	switch d.Policy.Impact {
	case contracts.PolicyPositive:
		score += 20
	case contracts.PolicyNegative:
		score -= 20
	}

	switch d.Sentiment.Overall {
	case contracts.MoodOptimistic:
		score += 15
	case contracts.MoodPessimistic:
		score -= 15
	}

	if n := len(d.Sentiment.RiskEvents); n > 0 {
		score -= math.Min(float64(n)*5, 15)
	}

	return contracts.ClampScore(score)
}

func intelligenceSummary(d *contracts.IntelligenceDetails) string {
	parts := []string{
		fmt.Sprintf("policy %s", d.Policy.Impact),
		fmt.Sprintf("news %s (%d items, %.0f%% positive)", d.Sentiment.Overall, d.Sentiment.NewsCount, d.Sentiment.PositiveRatio*100),
	}
	if n := len(d.Sentiment.RiskEvents); n > 0 {
		parts = append(parts, fmt.Sprintf("%d risk events", n))
	}
	return strings.Join(parts, " | ")
}
