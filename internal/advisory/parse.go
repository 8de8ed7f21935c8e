package advisory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/zuwa/backend/internal/contracts"
)

// ErrNoJSON is returned when a reply carries no JSON object
var ErrNoJSON = errors.New("no JSON object in reply")

type reply struct {
	Signal      string   `json:"signal"`
	Confidence  float64  `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
	TargetPrice *float64 `json:"target_price"`
	StopLoss    *float64 `json:"stop_loss"`
	Risks       []string `json:"risks"`
}

// ParseAdvice extracts the advice object from a model reply.
// Markdown code fences and surrounding prose are tolerated.
func ParseAdvice(text string) (*contracts.Advice, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, ErrNoJSON
	}

	var r reply
	if err := json.Unmarshal([]byte(text[start:end+1]), &r); err != nil {
		return nil, fmt.Errorf("decode advice: %w", err)
	}

	signal, err := parseSignal(r.Signal)
	if err != nil {
		return nil, err
	}

	return &contracts.Advice{
		Signal:      signal,
		Confidence:  contracts.ClampScore(r.Confidence),
		Reasoning:   strings.TrimSpace(r.Reasoning),
		TargetPrice: positive(r.TargetPrice),
		StopLoss:    positive(r.StopLoss),
		Risks:       r.Risks,
	}, nil
}

func parseSignal(s string) (contracts.AdviceSignal, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	switch sig := contracts.AdviceSignal(normalized); sig {
	case contracts.AdviceStrongBuy, contracts.AdviceBuy, contracts.AdviceHold,
		contracts.AdviceSell, contracts.AdviceStrongSell:
		return sig, nil
	default:
		return "", fmt.Errorf("unknown advice signal %q", s)
	}
}

func positive(p *float64) *float64 {
	if p == nil || *p <= 0 {
		return nil
	}
	return p
}
