package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 이벤트, DB row에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 (fan-out ×5) → S2 (fan-out ×2) → S3
//   Data   Analysts         Debate          Chief

// Stage represents a pipeline stage
type Stage string

const (
	// StageData S0: 시세/기본 정보 수집
	// 위치: internal/s0_data/
	StageData Stage = "S0_DATA"

	// StageAnalysts S1: 다섯 도메인 분석가 (technical, capital, intelligence, sector, sentiment)
	// 위치: internal/s1_analysts/
	StageAnalysts Stage = "S1_ANALYSTS"

	// StageDebate S2: Bull / Bear 토론
	// 위치: internal/s2_debate/
	StageDebate Stage = "S2_DEBATE"

	// StageChief S3: 가중 합산, 등급, 추천
	// 위치: internal/s3_chief/
	StageChief Stage = "S3_CHIEF"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageData:
		return "S0"
	case StageAnalysts:
		return "S1"
	case StageDebate:
		return "S2"
	case StageChief:
		return "S3"
	default:
		return "UNKNOWN"
	}
}

// Description returns a human readable description of the stage
func (s Stage) Description() string {
	switch s {
	case StageData:
		return "market data collection"
	case StageAnalysts:
		return "domain analysis"
	case StageDebate:
		return "bull/bear debate"
	case StageChief:
		return "weighted decision"
	default:
		return "unknown"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageData,
		StageAnalysts,
		StageDebate,
		StageChief,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// Domain names one analyst's namespace in the context
type Domain string

const (
	DomainTechnical    Domain = "technical"
	DomainCapital      Domain = "capital"
	DomainIntelligence Domain = "intelligence"
	DomainSector       Domain = "sector"
	DomainSentiment    Domain = "sentiment"
	DomainBull         Domain = "bull"
	DomainBear         Domain = "bear"
)

// AnalysisDomains are the S1 fan-out group
func AnalysisDomains() []Domain {
	return []Domain{DomainTechnical, DomainCapital, DomainIntelligence, DomainSector, DomainSentiment}
}

// DebateDomains are the S2 fan-out group
func DebateDomains() []Domain {
	return []Domain{DomainBull, DomainBear}
}

// Stage returns the stage that owns the domain
func (d Domain) Stage() Stage {
	switch d {
	case DomainBull, DomainBear:
		return StageDebate
	case DomainTechnical, DomainCapital, DomainIntelligence, DomainSector, DomainSentiment:
		return StageAnalysts
	default:
		return ""
	}
}

// StageEvent is emitted by the orchestrator at stage and analyst boundaries
type StageEvent struct {
	Stage      Stage   `json:"stage"`
	Domain     Domain  `json:"domain,omitempty"`
	Status     string  `json:"status"` // started, completed, failed
	Signal     Signal  `json:"signal,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Message    string  `json:"message,omitempty"`
	DurationMS int64   `json:"duration_ms,omitempty"`
}

// Event statuses
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventFailed    = "failed"
)
