package contracts

// Case types
const (
	CaseTechnical   = "technical"
	CaseCapital     = "capital"
	CaseFundamental = "fundamental"
	CaseCatalyst    = "catalyst"
	CaseRisk        = "risk"
)

// Case is one argument in the bull/bear debate
type Case struct {
	Type        string  `json:"type"`
	Factor      string  `json:"factor"`
	Weight      float64 `json:"weight"` // 0..1
	Description string  `json:"description"`
}

// AdviceSignal is the five-level vocabulary of the advisory model
type AdviceSignal string

const (
	AdviceStrongBuy  AdviceSignal = "STRONG_BUY"
	AdviceBuy        AdviceSignal = "BUY"
	AdviceHold       AdviceSignal = "HOLD"
	AdviceSell       AdviceSignal = "SELL"
	AdviceStrongSell AdviceSignal = "STRONG_SELL"
)

// Advice is the advisory collaborator's reply
type Advice struct {
	Provider    string       `json:"provider"`
	Signal      AdviceSignal `json:"signal"`
	Confidence  float64      `json:"confidence"`
	Reasoning   string       `json:"reasoning"`
	TargetPrice *float64     `json:"target_price,omitempty"`
	StopLoss    *float64     `json:"stop_loss,omitempty"`
	Risks       []string     `json:"risks,omitempty"`
}

// IsBullish reports whether the advice counts toward the bull side
func (a *Advice) IsBullish() bool {
	return a != nil && (a.Signal == AdviceBuy || a.Signal == AdviceStrongBuy)
}
