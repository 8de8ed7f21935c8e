package s3_chief

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/internal/strategyconfig"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

// Crowd sentiment folds in as a fixed score per signal
const (
	crowdBullishScore = 70.0
	crowdBearishScore = 30.0

	topScoreFloor    = 55.0
	bottomScoreCeil  = 45.0
	dominanceMargin  = 20.0
	insufficientData = "insufficient data: no analyst produced a usable view"
)

// scoreKeys is the fixed summation order; float sums must not depend on map order
var scoreKeys = []string{
	contracts.ScoreTechnical,
	contracts.ScoreCapital,
	contracts.ScoreIntelligence,
	contracts.ScoreSector,
	contracts.ScoreBullView,
	contracts.ScoreBearView,
	contracts.ScoreCrowdSentiment,
}

// domainKeys maps S1 domains to their score keys
var domainKeys = map[contracts.Domain]string{
	contracts.DomainTechnical:    contracts.ScoreTechnical,
	contracts.DomainCapital:      contracts.ScoreCapital,
	contracts.DomainIntelligence: contracts.ScoreIntelligence,
	contracts.DomainSector:       contracts.ScoreSector,
}

// Chief reconciles every analyst output into one decision (S3)
// ⭐ SSOT: 가중 합산, 등급, 추천은 여기서만
//
// COLLECTING_SCORES → WEIGHTING → RATING → RECOMMENDING → DONE
type Chief struct {
	weights    strategyconfig.Weights
	thresholds strategyconfig.RatingThresholds
	logger     *logger.Logger
}

// New creates a chief aggregator
func New(cfg *strategyconfig.Config, log *logger.Logger) *Chief {
	return &Chief{
		weights:    cfg.Weights,
		thresholds: cfg.Thresholds,
		logger:     log,
	}
}

// Decide builds the decision record. Output depends only on the inputs and ts.
func (c *Chief) Decide(symbol, name string, outputs map[contracts.Domain]contracts.Output, ts time.Time) *contracts.DecisionRecord {
	scores := ExtractScores(outputs)
	composite := Composite(scores, c.weights)
	rating, ratingConf := Rate(composite, c.thresholds)
	rec := Recommend(rating, composite, outputs)
	reasoning := Reason(scores, outputs)

	c.logger.WithFields(map[string]interface{}{
		"symbol":    symbol,
		"composite": composite,
		"rating":    rating,
		"inputs":    len(scores),
	}).Info("Decision made")

	embedded := make(map[contracts.Domain]contracts.Output, len(outputs))
	for d, o := range outputs {
		embedded[d] = o
	}

	return &contracts.DecisionRecord{
		Symbol:           symbol,
		Name:             name,
		CompositeScore:   composite,
		Rating:           rating,
		RatingConfidence: ratingConf,
		IndividualScores: scores,
		Recommendation:   rec,
		Reasoning:        reasoning,
		Outputs:          embedded,
		Timestamp:        ts,
	}
}

// SignalScore maps (signal, confidence) into score space
func SignalScore(o contracts.Output) float64 {
	switch o.Signal {
	case contracts.SignalBullish:
		return contracts.NeutralScore + o.Confidence/2
	case contracts.SignalBearish:
		return contracts.NeutralScore - o.Confidence/2
	default:
		return contracts.NeutralScore
	}
}

// ExtractScores is COLLECTING_SCORES. Failed outputs are absent.
func ExtractScores(outputs map[contracts.Domain]contracts.Output) map[string]float64 {
	scores := make(map[string]float64)
	present := func(d contracts.Domain) (contracts.Output, bool) {
		o, ok := outputs[d]
		if !ok || o.Failed() {
			return contracts.Output{}, false
		}
		return o, true
	}

	for domain, key := range domainKeys {
		if o, ok := present(domain); ok {
			scores[key] = SignalScore(o)
		}
	}

	if o, ok := present(contracts.DomainBull); ok {
		scores[contracts.ScoreBullView] = o.Confidence
	}
	if o, ok := present(contracts.DomainBear); ok {
		scores[contracts.ScoreBearView] = 100 - o.Confidence
	}

	// 역발상: 군중 BULLISH 해석 → 70, BEARISH → 30
	if o, ok := present(contracts.DomainSentiment); ok {
		switch o.Signal {
		case contracts.SignalBullish:
			scores[contracts.ScoreCrowdSentiment] = crowdBullishScore
		case contracts.SignalBearish:
			scores[contracts.ScoreCrowdSentiment] = crowdBearishScore
		default:
			scores[contracts.ScoreCrowdSentiment] = contracts.NeutralScore
		}
	}

	return scores
}

// Composite is WEIGHTING: Σ(score·w)/Σw over present inputs, 50 when none.
// Missing inputs only shrink the denominator.
func Composite(scores map[string]float64, weights strategyconfig.Weights) float64 {
	byKey := weights.ByKey()

	var weighted, total float64
	for _, key := range scoreKeys {
		score, ok := scores[key]
		if !ok {
			continue
		}
		weighted += score * byKey[key]
		total += byKey[key]
	}

	if total == 0 {
		return contracts.NeutralScore
	}
	return contracts.ClampScore(weighted / total)
}

// Rate is RATING: five bands with a per-band confidence
func Rate(composite float64, t strategyconfig.RatingThresholds) (contracts.Rating, float64) {
	switch {
	case composite >= t.StrongBuy:
		return contracts.RatingStrongBuy, contracts.ClampScore(composite)
	case composite >= t.Buy:
		return contracts.RatingBuy, contracts.ClampScore(composite)
	case composite >= t.Hold:
		return contracts.RatingHold, contracts.ClampScore(100 - math.Abs(composite-50)*2)
	case composite >= t.Sell:
		return contracts.RatingSell, contracts.ClampScore(100 - composite)
	default:
		return contracts.RatingStrongSell, contracts.ClampScore(100 - composite)
	}
}

// PositionBand returns the position-size guidance for a rating
func PositionBand(r contracts.Rating) string {
	switch r {
	case contracts.RatingStrongBuy:
		return "50-70%"
	case contracts.RatingBuy:
		return "30-50%"
	case contracts.RatingHold:
		return "keep current"
	case contracts.RatingSell:
		return "reduce to <10%"
	default:
		return "exit"
	}
}

// Recommend is RECOMMENDING: position band plus bull target and bear stop
func Recommend(rating contracts.Rating, composite float64, outputs map[contracts.Domain]contracts.Output) contracts.Recommendation {
	rec := contracts.Recommendation{Position: PositionBand(rating)}

	if o, ok := outputs[contracts.DomainBull]; ok && !o.Failed() {
		if bull, ok := o.Details.(*contracts.BullDetails); ok {
			rec.TargetPrice = positive(bull.TargetPrice)
		}
	}
	if o, ok := outputs[contracts.DomainBear]; ok && !o.Failed() {
		if bear, ok := o.Details.(*contracts.BearDetails); ok {
			rec.StopLoss = positive(bear.RiskPrice)
		}
	}

	parts := []string{
		fmt.Sprintf("[%s] composite %.0f/100", rating.Label(), composite),
		fmt.Sprintf("position %s", rec.Position),
	}
	if rec.TargetPrice != nil {
		parts = append(parts, fmt.Sprintf("target %.2f", *rec.TargetPrice))
	}
	if rec.StopLoss != nil {
		parts = append(parts, fmt.Sprintf("stop %.2f", *rec.StopLoss))
	}
	rec.Summary = strings.Join(parts, " | ")
	return rec
}

func positive(p *float64) *float64 {
	if p == nil || *p <= 0 {
		return nil
	}
	v := *p
	return &v
}

// Reason narrates the strongest and weakest inputs and the debate outcome
func Reason(scores map[string]float64, outputs map[contracts.Domain]contracts.Output) string {
	if len(scores) == 0 {
		return insufficientData
	}

	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// 동점은 키 이름 순
	top, bottom := keys[0], keys[0]
	for _, k := range keys[1:] {
		if scores[k] > scores[top] {
			top = k
		}
		if scores[k] < scores[bottom] {
			bottom = k
		}
	}

	var reasons []string
	if scores[top] > topScoreFloor {
		reasons = append(reasons, fmt.Sprintf("bullish driver: %s scores high (%.0f)", displayName(top), scores[top]))
	}
	if scores[bottom] < bottomScoreCeil {
		reasons = append(reasons, fmt.Sprintf("bearish driver: %s scores low (%.0f)", displayName(bottom), scores[bottom]))
	}

	bull, bullOK := outputs[contracts.DomainBull]
	bear, bearOK := outputs[contracts.DomainBear]
	if bullOK && bearOK && !bull.Failed() && !bear.Failed() {
		switch {
		case bull.Confidence > bear.Confidence+dominanceMargin:
			reasons = append(reasons, fmt.Sprintf("bull view dominates (confidence %.0f%% vs %.0f%%)", bull.Confidence, bear.Confidence))
		case bear.Confidence > bull.Confidence+dominanceMargin:
			reasons = append(reasons, fmt.Sprintf("bear view dominates (confidence %.0f%% vs %.0f%%)", bear.Confidence, bull.Confidence))
		default:
			reasons = append(reasons, fmt.Sprintf("bull and bear disagree (confidence %.0f%% vs %.0f%%), stay cautious", bull.Confidence, bear.Confidence))
		}
	}

	if len(reasons) == 0 {
		return "no dominant factor"
	}
	return strings.Join(reasons, "; ")
}

func displayName(key string) string {
	switch key {
	case contracts.ScoreTechnical:
		return "technicals"
	case contracts.ScoreCapital:
		return "capital flow"
	case contracts.ScoreIntelligence:
		return "news and policy"
	case contracts.ScoreSector:
		return "sector"
	case contracts.ScoreBullView:
		return "bull view"
	case contracts.ScoreBearView:
		return "bear view"
	case contracts.ScoreCrowdSentiment:
		return "crowd sentiment"
	default:
		return key
	}
}
