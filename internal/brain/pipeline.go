package brain

import (
	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/internal/s1_analysts"
	"github.com/wonny/zuwa/backend/internal/s2_debate"
	"github.com/wonny/zuwa/backend/internal/strategyconfig"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

// Sources are the collaborator data sources of the S1 analysts. Any may be nil.
type Sources struct {
	FundFlow contracts.FundFlowSource
	News     contracts.NewsSource
	Sector   contracts.SectorSource
	Crowd    contracts.CrowdSource
}

// Analysts builds the five S1 analysts in fixed order
func Analysts(src Sources, cfg *strategyconfig.Config, log *logger.Logger) []contracts.Analyst {
	return []contracts.Analyst{
		s1_analysts.NewTechnicalAnalyst(log),
		s1_analysts.NewCapitalAnalyst(src.FundFlow, log),
		s1_analysts.NewIntelligenceAnalyst(src.News, cfg.Analysts.NewsLimit, log),
		s1_analysts.NewSectorAnalyst(src.Sector, log),
		s1_analysts.NewSentimentAnalyst(src.Crowd, cfg.Sentiment, log),
	}
}

// Debaters builds the bull and bear analysts. advisor may be nil.
func Debaters(cfg *strategyconfig.Config, advisor contracts.Advisor, log *logger.Logger) []contracts.Analyst {
	return []contracts.Analyst{
		s2_debate.NewBullAnalyst(cfg.Debate, advisor, log),
		s2_debate.NewBearAnalyst(cfg.Debate, log),
	}
}

// New wires the standard seven-analyst pipeline
func New(provider contracts.MarketDataProvider, src Sources, advisor contracts.Advisor, cfg *strategyconfig.Config, log *logger.Logger, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = strategyconfig.Default()
	}
	return NewOrchestrator(provider, Analysts(src, cfg, log), Debaters(cfg, advisor, log), cfg, log, opts...)
}

// AgentName returns the display name used in failure outputs
func AgentName(d contracts.Domain) string {
	switch d {
	case contracts.DomainTechnical:
		return s1_analysts.NameTechnical
	case contracts.DomainCapital:
		return s1_analysts.NameCapital
	case contracts.DomainIntelligence:
		return s1_analysts.NameIntelligence
	case contracts.DomainSector:
		return s1_analysts.NameSector
	case contracts.DomainSentiment:
		return s1_analysts.NameSentiment
	case contracts.DomainBull:
		return s2_debate.NameBull
	case contracts.DomainBear:
		return s2_debate.NameBear
	default:
		return string(d)
	}
}
