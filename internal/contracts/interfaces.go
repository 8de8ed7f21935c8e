package contracts

import (
	"context"
)

// MarketDataProvider loads the root snapshot (S0)
// ⭐ SSOT: S0 데이터 인터페이스
//
// 구현체는 절대 에러를 반환하지 않는다. 실패 시 EmptySnapshot.
type MarketDataProvider interface {
	Snapshot(ctx context.Context, symbol string) MarketSnapshot
}

// Analyst is one node of the pipeline (S1, S2)
// ⭐ SSOT: 모든 분석가는 이 인터페이스
//
// Analyze must not retain the snapshot. Panics and overruns are
// converted to FailureOutput by the orchestrator.
type Analyst interface {
	Name() Domain
	Analyze(ctx context.Context, snap Context) Output
}

// FundFlowSource supplies capital-flow data for the capital analyst
type FundFlowSource interface {
	FundFlow(ctx context.Context, symbol string) (FundFlow, error)
}

// NewsSource supplies headlines for the intelligence analyst
type NewsSource interface {
	News(ctx context.Context, symbol string, limit int) ([]NewsItem, error)
}

// SectorSource supplies the industry board profile for the sector analyst
type SectorSource interface {
	Sector(ctx context.Context, industry string) (SectorProfile, error)
}

// CrowdSource supplies retail positioning data for the sentiment analyst
type CrowdSource interface {
	Crowd(ctx context.Context, symbol string) (CrowdMetrics, error)
}

// AdvisoryRequest is what the bull analyst sends to the advisory model
type AdvisoryRequest struct {
	Symbol    string            `json:"symbol"`
	Name      string            `json:"name"`
	Market    MarketSnapshot    `json:"market"`
	Technical *TechnicalDetails `json:"technical,omitempty"`
	Capital   *CapitalDetails   `json:"capital,omitempty"`
}

// Advisor is the optional LLM collaborator of the bull analyst
type Advisor interface {
	Name() string
	Advise(ctx context.Context, req AdvisoryRequest) (*Advice, error)
}

// DecisionRepository persists decision records
// ⭐ SSOT: Repository 인터페이스 정의는 여기서만
type DecisionRepository interface {
	Save(ctx context.Context, record *DecisionRecord) error
	GetByRunID(ctx context.Context, runID string) (*DecisionRecord, error)
	ListBySymbol(ctx context.Context, symbol string, limit int) ([]*DecisionRecord, error)
}
