package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/internal/s0_data/quality"
	"github.com/wonny/zuwa/backend/pkg/logger"
	"github.com/wonny/zuwa/backend/pkg/redis"
)

// DefaultHistoryDays 기본 일봉 요청 수 (SMA60 + 여유분)
const DefaultHistoryDays = 120

// MarketSource loads quote, fundamentals and daily bars for one symbol
type MarketSource interface {
	Snapshot(ctx context.Context, symbol string, days int) (contracts.MarketSnapshot, error)
}

// Provider is the S0 adapter in front of a MarketSource
// ⭐ SSOT: S0 데이터 조회는 여기서만
//
// 캐시 → 소스 → 품질 게이트 순서. 어떤 실패도 파이프라인에 에러로 전달하지 않는다.
type Provider struct {
	source MarketSource
	cache  *redis.Cache
	gate   *quality.Gate
	days   int
	ttl    time.Duration
	now    func() time.Time
	logger *logger.Logger
}

var _ contracts.MarketDataProvider = (*Provider)(nil)

// NewProvider creates a new provider. cache may be nil.
func NewProvider(source MarketSource, cache *redis.Cache, days int, log *logger.Logger) *Provider {
	if days <= 0 {
		days = DefaultHistoryDays
	}
	return &Provider{
		source: source,
		cache:  cache,
		gate:   quality.NewGate(quality.DefaultConfig()),
		days:   days,
		ttl:    redis.TTLMedium,
		now:    time.Now,
		logger: log.WithComponent("s0_data"),
	}
}

// WithCacheTTL overrides the snapshot cache lifetime
func (p *Provider) WithCacheTTL(ttl time.Duration) *Provider {
	if ttl > 0 {
		p.ttl = ttl
	}
	return p
}

// WithQualityGate replaces the default quality thresholds
func (p *Provider) WithQualityGate(gate *quality.Gate) *Provider {
	p.gate = gate
	return p
}

// Snapshot returns the market snapshot, or contracts.EmptySnapshot on any failure
func (p *Provider) Snapshot(ctx context.Context, symbol string) contracts.MarketSnapshot {
	symbol = contracts.NormalizeSymbol(symbol)
	log := p.logger.WithField("symbol", symbol)

	if symbol == "" {
		log.Warn("Empty symbol, returning empty snapshot")
		return contracts.EmptySnapshot(symbol)
	}

	snap, err := p.load(ctx, symbol)
	if err != nil {
		log.WithError(err).Warn("Market data unavailable, returning empty snapshot")
		return contracts.EmptySnapshot(symbol)
	}
	snap.Symbol = symbol

	cleaned, report := p.gate.Check(snap)
	fields := map[string]interface{}{
		"bars":    report.ValidBars,
		"score":   report.Score,
		"passed":  report.Passed,
		"issues":  len(report.Issues),
		"current": cleaned.Quote.Current,
	}
	if !report.Passed {
		log.WithFields(fields).Warnf("Snapshot below quality threshold: %v", report.Issues)
	} else {
		log.WithFields(fields).Debug("Snapshot loaded")
	}

	if cleaned.IsEmpty() {
		return contracts.EmptySnapshot(symbol)
	}
	return cleaned
}

func (p *Provider) load(ctx context.Context, symbol string) (contracts.MarketSnapshot, error) {
	if p.source == nil {
		return contracts.MarketSnapshot{}, fmt.Errorf("no market source configured")
	}

	if p.cache == nil {
		return p.source.Snapshot(ctx, symbol, p.days)
	}

	var snap contracts.MarketSnapshot
	key := redis.SnapshotKey(symbol, p.now().Format("2006-01-02"))
	err := p.cache.GetOrSet(ctx, key, &snap, p.ttl, func() (interface{}, error) {
		return p.source.Snapshot(ctx, symbol, p.days)
	})
	if err != nil {
		return contracts.MarketSnapshot{}, err
	}
	return snap, nil
}
