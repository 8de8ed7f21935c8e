package s0_data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/wonny/zuwa/backend/internal/contracts"
)

// ErrNoFixture is returned when a fixture has no data for the request
var ErrNoFixture = errors.New("fixture: no data")

// Fixture is one symbol's offline data set
//
// 파일 형식: 단일 객체 또는 배열
//
//	{"snapshot": {...}, "fund_flow": {...}, "news": [...], "sector": {...}, "crowd": {...}}
type Fixture struct {
	Snapshot contracts.MarketSnapshot `json:"snapshot"`
	FundFlow *contracts.FundFlow      `json:"fund_flow,omitempty"`
	News     []contracts.NewsItem     `json:"news,omitempty"`
	Sector   *contracts.SectorProfile `json:"sector,omitempty"`
	Crowd    *contracts.CrowdMetrics  `json:"crowd,omitempty"`
}

// FixtureSource serves fixtures in place of the live provider and every collaborator source
type FixtureSource struct {
	bySymbol map[string]Fixture
}

var (
	_ MarketSource             = (*FixtureSource)(nil)
	_ contracts.FundFlowSource = (*FixtureSource)(nil)
	_ contracts.NewsSource     = (*FixtureSource)(nil)
	_ contracts.SectorSource   = (*FixtureSource)(nil)
	_ contracts.CrowdSource    = (*FixtureSource)(nil)
)

// NewFixtureSource indexes fixtures by normalized symbol
func NewFixtureSource(fixtures ...Fixture) *FixtureSource {
	s := &FixtureSource{bySymbol: make(map[string]Fixture, len(fixtures))}
	for _, f := range fixtures {
		f.Snapshot.Symbol = contracts.NormalizeSymbol(f.Snapshot.Symbol)
		s.bySymbol[f.Snapshot.Symbol] = f
	}
	return s
}

// LoadFixtures reads a fixture file
func LoadFixtures(path string) (*FixtureSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes a single fixture object or an array of them
func ParseFixtures(data []byte) (*FixtureSource, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []Fixture
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("parse fixture list: %w", err)
		}
		return NewFixtureSource(list...), nil
	}

	var one Fixture
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if one.Snapshot.Symbol == "" {
		return nil, fmt.Errorf("parse fixture: snapshot.symbol is required")
	}
	return NewFixtureSource(one), nil
}

// Symbols lists the symbols the source can serve
func (s *FixtureSource) Symbols() []string {
	out := make([]string, 0, len(s.bySymbol))
	for sym := range s.bySymbol {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func (s *FixtureSource) lookup(symbol string) (Fixture, error) {
	f, ok := s.bySymbol[contracts.NormalizeSymbol(symbol)]
	if !ok {
		return Fixture{}, fmt.Errorf("%w for %s", ErrNoFixture, symbol)
	}
	return f, nil
}

// Snapshot returns the stored snapshot, keeping the last days bars
func (s *FixtureSource) Snapshot(_ context.Context, symbol string, days int) (contracts.MarketSnapshot, error) {
	f, err := s.lookup(symbol)
	if err != nil {
		return contracts.MarketSnapshot{}, err
	}

	snap := f.Snapshot
	bars := snap.Bars
	if days > 0 && len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	snap.Bars = append([]contracts.Bar(nil), bars...)
	return snap, nil
}

// FundFlow returns the stored fund flow
func (s *FixtureSource) FundFlow(_ context.Context, symbol string) (contracts.FundFlow, error) {
	f, err := s.lookup(symbol)
	if err != nil {
		return contracts.FundFlow{}, err
	}
	if f.FundFlow == nil {
		return contracts.FundFlow{}, fmt.Errorf("%w: fund flow for %s", ErrNoFixture, symbol)
	}
	return *f.FundFlow, nil
}

// News returns up to limit stored headlines
func (s *FixtureSource) News(_ context.Context, symbol string, limit int) ([]contracts.NewsItem, error) {
	f, err := s.lookup(symbol)
	if err != nil {
		return nil, err
	}
	news := f.News
	if limit > 0 && len(news) > limit {
		news = news[:limit]
	}
	return append([]contracts.NewsItem(nil), news...), nil
}

// Sector returns the stored profile whose name or snapshot industry matches
func (s *FixtureSource) Sector(_ context.Context, industry string) (contracts.SectorProfile, error) {
	for _, sym := range s.Symbols() {
		f := s.bySymbol[sym]
		if f.Sector == nil {
			continue
		}
		if f.Sector.Name == industry || f.Snapshot.Fundamentals.Industry == industry {
			return *f.Sector, nil
		}
	}
	return contracts.SectorProfile{}, fmt.Errorf("%w: sector %q", ErrNoFixture, industry)
}

// Crowd returns the stored crowd metrics
func (s *FixtureSource) Crowd(_ context.Context, symbol string) (contracts.CrowdMetrics, error) {
	f, err := s.lookup(symbol)
	if err != nil {
		return contracts.NeutralCrowdMetrics(), err
	}
	if f.Crowd == nil {
		return contracts.NeutralCrowdMetrics(), fmt.Errorf("%w: crowd for %s", ErrNoFixture, symbol)
	}
	return *f.Crowd, nil
}
