package contracts

import "fmt"

// Details is the analyst-specific payload written to the context.
// Closed set: one concrete type per Domain.
type Details interface {
	DetailsDomain() Domain
}

// newDetails returns a zero value of the concrete type for domain
func newDetails(domain Domain) (Details, error) {
	switch domain {
	case DomainTechnical:
		return &TechnicalDetails{}, nil
	case DomainCapital:
		return &CapitalDetails{}, nil
	case DomainIntelligence:
		return &IntelligenceDetails{}, nil
	case DomainSector:
		return &SectorDetails{}, nil
	case DomainSentiment:
		return &SentimentDetails{}, nil
	case DomainBull:
		return &BullDetails{}, nil
	case DomainBear:
		return &BearDetails{}, nil
	default:
		return nil, fmt.Errorf("unknown domain %q", domain)
	}
}

// Direction is a price-vs-average label
type Direction string

const (
	DirectionUp      Direction = "UP"
	DirectionDown    Direction = "DOWN"
	DirectionUnknown Direction = "UNKNOWN"
)

// Alignment describes moving-average stacking
type Alignment string

const (
	AlignmentBullish Alignment = "bullish" // SMA5 > SMA10 > SMA20
	AlignmentBearish Alignment = "bearish" // SMA5 < SMA10 < SMA20
	AlignmentMixed   Alignment = "mixed"
	AlignmentUnknown Alignment = "unknown"
)

// Level is a three-way oscillator/cross label
type Level string

const (
	LevelOversold   Level = "oversold"
	LevelOverbought Level = "overbought"
	LevelGolden     Level = "golden_cross"
	LevelDeath      Level = "death_cross"
	LevelNeutral    Level = "neutral"
)

// Chart patterns
const (
	PatternLimitUp       = "limit_up"
	PatternLongAlignment = "long_ma_alignment"
)

// TrendDetails holds close-vs-SMA directions
type TrendDetails struct {
	ShortTerm   Direction `json:"short_term"` // vs SMA5
	MidTerm     Direction `json:"mid_term"`   // vs SMA20
	LongTerm    Direction `json:"long_term"`  // vs SMA60
	MAAlignment Alignment `json:"ma_alignment"`
}

// MomentumDetails holds oscillator readings
type MomentumDetails struct {
	RSI        float64 `json:"rsi"`
	RSISignal  Level   `json:"rsi_signal"`
	MACD       float64 `json:"macd"`
	SignalLine float64 `json:"signal_line"`
	MACDSignal Level   `json:"macd_signal"`
}

// SupportResistance is the 20-bar range and where price sits in it
type SupportResistance struct {
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
	Current    float64 `json:"current"`
	Position   float64 `json:"position"` // 0 = at support, 1 = at resistance
}

// TechnicalDetails is written by the technical analyst
type TechnicalDetails struct {
	Score             float64           `json:"score"`
	Trend             TrendDetails      `json:"trend"`
	Momentum          MomentumDetails   `json:"momentum"`
	SupportResistance SupportResistance `json:"support_resistance"`
	Patterns          []string          `json:"patterns"`
	Volatility20D     float64           `json:"volatility_20d"`
}

func (*TechnicalDetails) DetailsDomain() Domain { return DomainTechnical }

// HasPattern reports whether pattern was detected
func (t *TechnicalDetails) HasPattern(pattern string) bool {
	for _, p := range t.Patterns {
		if p == pattern {
			return true
		}
	}
	return false
}

// CapitalDetails is written by the capital-flow analyst
type CapitalDetails struct {
	Score float64  `json:"score"`
	Flow  FundFlow `json:"flow"`
}

func (*CapitalDetails) DetailsDomain() Domain { return DomainCapital }

// PolicyImpact labels regulatory news tone
type PolicyImpact string

const (
	PolicyPositive PolicyImpact = "positive"
	PolicyNegative PolicyImpact = "negative"
	PolicyNeutral  PolicyImpact = "neutral"
)

// Mood labels aggregate news tone
type Mood string

const (
	MoodOptimistic  Mood = "optimistic"
	MoodPessimistic Mood = "pessimistic"
	MoodNeutral     Mood = "neutral"
)

// PolicyDetails summarizes policy keyword hits
type PolicyDetails struct {
	Impact       PolicyImpact `json:"impact"`
	PositiveHits int          `json:"positive_hits"`
	NegativeHits int          `json:"negative_hits"`
	Industry     string       `json:"industry,omitempty"`
}

// NewsSentiment summarizes headline tone
type NewsSentiment struct {
	Overall       Mood     `json:"overall"`
	PositiveRatio float64  `json:"positive_ratio"`
	HotTopics     []string `json:"hot_topics"`
	RiskEvents    []string `json:"risk_events"`
	NewsCount     int      `json:"news_count"`
}

// IntelligenceDetails is written by the news/policy analyst
type IntelligenceDetails struct {
	Score     float64       `json:"score"`
	News      []NewsItem    `json:"news"`
	Policy    PolicyDetails `json:"policy"`
	Sentiment NewsSentiment `json:"sentiment"`
}

func (*IntelligenceDetails) DetailsDomain() Domain { return DomainIntelligence }

// ValuationLevel compares the stock's PE to its sector
type ValuationLevel string

const (
	ValuationUndervalued ValuationLevel = "undervalued"
	ValuationFair        ValuationLevel = "fair"
	ValuationOvervalued  ValuationLevel = "overvalued"
)

// ValuationComparison is stock PE against sector PE
type ValuationComparison struct {
	StockPE        float64        `json:"stock_pe"`
	SectorMedianPE float64        `json:"sector_median_pe"`
	Level          ValuationLevel `json:"level"`
}

// SectorDetails is written by the sector analyst
type SectorDetails struct {
	Score     float64             `json:"score"`
	Profile   SectorProfile       `json:"profile"`
	Valuation ValuationComparison `json:"valuation"`
}

func (*SectorDetails) DetailsDomain() Domain { return DomainSector }

// SentimentThresholds are the contrarian interpretation bands
type SentimentThresholds struct {
	ExtremeGreed float64 `json:"extreme_greed" yaml:"extreme_greed" default:"85" validate:"gt=0,lte=100"`
	Greed        float64 `json:"greed" yaml:"greed" default:"70" validate:"gt=0,ltfield=ExtremeGreed"`
	Fear         float64 `json:"fear" yaml:"fear" default:"30" validate:"gt=0,ltfield=Greed"`
	ExtremeFear  float64 `json:"extreme_fear" yaml:"extreme_fear" default:"15" validate:"gte=0,ltfield=Fear"`
}

// SentimentDetails is written by the crowd-sentiment analyst
type SentimentDetails struct {
	Index          float64             `json:"sentiment_index"`
	Interpretation string              `json:"interpretation"`
	Thresholds     SentimentThresholds `json:"thresholds"`
	Raw            CrowdMetrics        `json:"raw"`
}

func (*SentimentDetails) DetailsDomain() Domain { return DomainSentiment }

// BullDetails is written by the bull debate analyst
type BullDetails struct {
	Cases       []Case   `json:"cases"`
	TargetPrice *float64 `json:"target_price"`
	Bias        float64  `json:"bias"`
	Advisory    *Advice  `json:"advisory,omitempty"`
}

func (*BullDetails) DetailsDomain() Domain { return DomainBull }

// BearDetails is written by the bear debate analyst
type BearDetails struct {
	Cases     []Case   `json:"cases"`
	RiskPrice *float64 `json:"risk_price"`
	Bias      float64  `json:"bias"`
}

func (*BearDetails) DetailsDomain() Domain { return DomainBear }
