package strategyconfig

import (
	"time"

	"github.com/wonny/zuwa/backend/internal/contracts"
)

// Config는 분석 파이프라인의 전체 설정 (agents.yaml)
// 모든 필드는 기본값을 가지므로 빈 파일도 유효하다
type Config struct {
	Meta       Meta                          `yaml:"meta" json:"meta"`
	Weights    Weights                       `yaml:"weights" json:"weights"`
	Thresholds RatingThresholds              `yaml:"thresholds" json:"thresholds"`
	Debate     Debate                        `yaml:"debate" json:"debate"`
	Sentiment  contracts.SentimentThresholds `yaml:"sentiment" json:"sentiment"`
	Analysts   Analysts                      `yaml:"analysts" json:"analysts"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id" default:"multi_analyst_cn" validate:"required"`
	Version    string `yaml:"version" json:"version" default:"1"`
}

// Weights S3: chief 가중치
// 합이 1일 필요는 없다 (존재하는 입력의 가중치 합으로 정규화)
type Weights struct {
	Technical      float64 `yaml:"technical" json:"technical" default:"0.20" validate:"gte=0,lte=1"`
	Capital        float64 `yaml:"capital" json:"capital" default:"0.25" validate:"gte=0,lte=1"`
	Intelligence   float64 `yaml:"intelligence" json:"intelligence" default:"0.20" validate:"gte=0,lte=1"`
	Sector         float64 `yaml:"sector" json:"sector" default:"0.15" validate:"gte=0,lte=1"`
	BullView       float64 `yaml:"bull_view" json:"bull_view" default:"0.10" validate:"gte=0,lte=1"`
	BearView       float64 `yaml:"bear_view" json:"bear_view" default:"0.10" validate:"gte=0,lte=1"`
	CrowdSentiment float64 `yaml:"crowd_sentiment" json:"crowd_sentiment" default:"0.05" validate:"gte=0,lte=1"`
}

// Sum returns the total of the six primary weights
func (w Weights) Sum() float64 {
	return w.Technical + w.Capital + w.Intelligence + w.Sector + w.BullView + w.BearView
}

// ByKey returns weight by individual score key
func (w Weights) ByKey() map[string]float64 {
	return map[string]float64{
		contracts.ScoreTechnical:      w.Technical,
		contracts.ScoreCapital:        w.Capital,
		contracts.ScoreIntelligence:   w.Intelligence,
		contracts.ScoreSector:         w.Sector,
		contracts.ScoreBullView:       w.BullView,
		contracts.ScoreBearView:       w.BearView,
		contracts.ScoreCrowdSentiment: w.CrowdSentiment,
	}
}

// RatingThresholds S3: composite → rating 경계 (내림차순)
type RatingThresholds struct {
	StrongBuy float64 `yaml:"strong_buy" json:"strong_buy" default:"80" validate:"gt=0,lte=100"`
	Buy       float64 `yaml:"buy" json:"buy" default:"60" validate:"gt=0,ltfield=StrongBuy"`
	Hold      float64 `yaml:"hold" json:"hold" default:"40" validate:"gt=0,ltfield=Buy"`
	Sell      float64 `yaml:"sell" json:"sell" default:"20" validate:"gt=0,ltfield=Hold"`
}

// Debate S2: bull/bear 신뢰도 파라미터
type Debate struct {
	BullBias        float64 `yaml:"bull_bias" json:"bull_bias" default:"10" validate:"gte=0,lte=50"`
	BearBias        float64 `yaml:"bear_bias" json:"bear_bias" default:"10" validate:"gte=0,lte=50"`
	BaseConfidence  float64 `yaml:"base_confidence" json:"base_confidence" default:"40" validate:"gte=0,lte=100"`
	MaxConfidence   float64 `yaml:"max_confidence" json:"max_confidence" default:"95" validate:"gt=0,lte=100"`
	EmptyConfidence float64 `yaml:"empty_confidence" json:"empty_confidence" default:"30" validate:"gte=0,lte=100"`
	AdvisoryBoost   float64 `yaml:"advisory_boost" json:"advisory_boost" default:"10" validate:"gte=0,lte=50"`
}

// Analysts S1/S2 실행 파라미터
type Analysts struct {
	Timeout   time.Duration `yaml:"timeout" json:"timeout" default:"10s"`
	NewsLimit int           `yaml:"news_limit" json:"news_limit" default:"20" validate:"gt=0,lte=100"`
}
