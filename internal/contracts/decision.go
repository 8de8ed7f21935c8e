package contracts

import "time"

// Rating is the chief's five-level verdict
type Rating string

const (
	RatingStrongBuy  Rating = "strong_buy"
	RatingBuy        Rating = "buy"
	RatingHold       Rating = "hold"
	RatingSell       Rating = "sell"
	RatingStrongSell Rating = "strong_sell"
)

// AllRatings returns ratings from most to least bullish
func AllRatings() []Rating {
	return []Rating{RatingStrongBuy, RatingBuy, RatingHold, RatingSell, RatingStrongSell}
}

// Label returns the display label
func (r Rating) Label() string {
	switch r {
	case RatingStrongBuy:
		return "STRONG BUY"
	case RatingBuy:
		return "BUY"
	case RatingHold:
		return "HOLD"
	case RatingSell:
		return "SELL"
	case RatingStrongSell:
		return "STRONG SELL"
	default:
		return "UNKNOWN"
	}
}

// Individual score keys of a decision record
const (
	ScoreTechnical      = "technical"
	ScoreCapital        = "capital"
	ScoreIntelligence   = "intelligence"
	ScoreSector         = "sector"
	ScoreBullView       = "bull_view"
	ScoreBearView       = "bear_view"
	ScoreCrowdSentiment = "crowd_sentiment"
)

// Recommendation is the actionable part of a decision
type Recommendation struct {
	Position    string   `json:"position"`
	TargetPrice *float64 `json:"target_price"`
	StopLoss    *float64 `json:"stop_loss"`
	Summary     string   `json:"summary"`
}

// DecisionRecord is the final pipeline output
// ⭐ SSOT: S3 → API/DB/CLI
type DecisionRecord struct {
	RunID            string             `json:"run_id,omitempty"`
	ConfigHash       string             `json:"config_hash,omitempty"`
	Symbol           string             `json:"symbol"`
	Name             string             `json:"name"`
	CompositeScore   float64            `json:"composite_score"`
	Rating           Rating             `json:"rating"`
	RatingConfidence float64            `json:"rating_confidence"`
	IndividualScores map[string]float64 `json:"individual_scores"`
	Recommendation   Recommendation     `json:"recommendation"`
	Reasoning        string             `json:"reasoning"`
	Outputs          map[Domain]Output  `json:"outputs"`
	DataUnavailable  bool               `json:"data_unavailable,omitempty"` // S0 시세 없음
	Timestamp        time.Time          `json:"timestamp"`
}

// FailedDomains lists domains whose analyst failed or timed out
func (r *DecisionRecord) FailedDomains() []Domain {
	var failed []Domain
	for _, d := range append(AnalysisDomains(), DebateDomains()...) {
		if o, ok := r.Outputs[d]; ok && o.Failed() {
			failed = append(failed, d)
		}
	}
	return failed
}
