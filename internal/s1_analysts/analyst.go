package s1_analysts

import (
	"time"

	"github.com/wonny/zuwa/backend/internal/contracts"
)

// Agent names shown in reports
const (
	NameTechnical    = "Technical Analyst"
	NameCapital      = "Capital Flow Analyst"
	NameIntelligence = "Intelligence Analyst"
	NameSector       = "Sector Analyst"
	NameSentiment    = "Crowd Sentiment Analyst"
)

// baseline is where every score starts
const baseline = contracts.NeutralScore

// scoredOutput applies the shared score → signal/confidence rule
func scoredOutput(domain contracts.Domain, name string, score, k, ceiling float64, summary string, details contracts.Details) contracts.Output {
	score = contracts.ClampScore(score)
	return contracts.NewOutput(
		domain,
		name,
		contracts.SignalFromScore(score),
		contracts.DistanceConfidence(score, k, ceiling),
		summary,
		details,
		time.Now(),
	)
}
