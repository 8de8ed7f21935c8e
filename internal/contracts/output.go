package contracts

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Signal is the directional stance of an analyst
type Signal string

const (
	SignalBullish Signal = "BULLISH"
	SignalBearish Signal = "BEARISH"
	SignalNeutral Signal = "NEUTRAL"
)

// Score space constants shared by every analyst
const (
	NeutralScore      = 50.0
	BullishScoreFloor = 60.0
	BearishScoreCeil  = 40.0
)

// IsValid reports whether s is one of the three signals
func (s Signal) IsValid() bool {
	return s == SignalBullish || s == SignalBearish || s == SignalNeutral
}

// SignalFromScore applies the 60/40 rule to a 0-100 score
func SignalFromScore(score float64) Signal {
	switch {
	case score >= BullishScoreFloor:
		return SignalBullish
	case score <= BearishScoreCeil:
		return SignalBearish
	default:
		return SignalNeutral
	}
}

// Clamp bounds v to [lo, hi]. NaN collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// ClampScore bounds a score or confidence to [0, 100]
func ClampScore(v float64) float64 {
	return Clamp(v, 0, 100)
}

// DistanceConfidence is |score-50|*k capped at ceiling
func DistanceConfidence(score, k, ceiling float64) float64 {
	return math.Min(math.Abs(score-NeutralScore)*k, ceiling)
}

// Output is the record every analyst produces
// ⭐ SSOT: 모든 분석가 출력은 이 구조체
type Output struct {
	AgentName  string    `json:"agent_name"`
	Domain     Domain    `json:"domain"`
	Signal     Signal    `json:"signal"`
	Confidence float64   `json:"confidence"`
	Summary    string    `json:"summary"`
	Details    Details   `json:"details,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewOutput builds an Output with confidence clamped and signal sanitized
func NewOutput(domain Domain, name string, signal Signal, confidence float64, summary string, details Details, ts time.Time) Output {
	if !signal.IsValid() {
		signal = SignalNeutral
	}
	return Output{
		AgentName:  name,
		Domain:     domain,
		Signal:     signal,
		Confidence: ClampScore(confidence),
		Summary:    summary,
		Details:    details,
		Timestamp:  ts,
	}
}

// FailureOutput is the NEUTRAL/0 record produced when an analyst fails
func FailureOutput(domain Domain, name, cause string, ts time.Time) Output {
	return Output{
		AgentName:  name,
		Domain:     domain,
		Signal:     SignalNeutral,
		Confidence: 0,
		Summary:    cause,
		Error:      cause,
		Timestamp:  ts,
	}
}

// Failed reports whether the output came from a failed or timed out analyst
func (o Output) Failed() bool {
	return o.Error != ""
}

// UnmarshalJSON restores the concrete Details type from the domain tag
func (o *Output) UnmarshalJSON(data []byte) error {
	type alias Output
	var raw struct {
		alias
		Details json.RawMessage `json:"details,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*o = Output(raw.alias)
	o.Details = nil

	if len(raw.Details) == 0 || string(raw.Details) == "null" {
		return nil
	}

	details, err := newDetails(o.Domain)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw.Details, details); err != nil {
		return fmt.Errorf("decode %s details: %w", o.Domain, err)
	}
	o.Details = details
	return nil
}
