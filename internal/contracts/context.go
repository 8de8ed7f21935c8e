package contracts

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateKey is returned when a domain is written to a context twice
var ErrDuplicateKey = errors.New("domain already present in context")

// Context is the immutable shared state passed between stages.
// ⭐ SSOT: 분석가 간 데이터 전달은 Context 스냅샷으로만
//
// 각 단계는 스냅샷을 읽기만 하고, 결과(Output)를 델타로 반환한다.
// 오케스트레이터가 barrier 이후 With()로 새 스냅샷을 만든다.
type Context struct {
	symbol  string
	market  MarketSnapshot
	outputs map[Domain]Output
}

// NewContext creates the root snapshot from provider data
func NewContext(market MarketSnapshot) Context {
	return Context{
		symbol:  market.Symbol,
		market:  market,
		outputs: map[Domain]Output{},
	}
}

// Symbol returns the normalized instrument id
func (c Context) Symbol() string { return c.symbol }

// Market returns the provider snapshot
func (c Context) Market() MarketSnapshot { return c.market }

// With returns a new snapshot containing outputs. The receiver is unchanged.
// Writing a domain that is already present fails with ErrDuplicateKey.
func (c Context) With(outputs ...Output) (Context, error) {
	next := make(map[Domain]Output, len(c.outputs)+len(outputs))
	for d, o := range c.outputs {
		next[d] = o
	}
	for _, o := range outputs {
		if o.Domain == "" {
			return c, fmt.Errorf("output %q has no domain", o.AgentName)
		}
		if _, exists := next[o.Domain]; exists {
			return c, fmt.Errorf("%w: %s", ErrDuplicateKey, o.Domain)
		}
		next[o.Domain] = o
	}
	return Context{symbol: c.symbol, market: c.market, outputs: next}, nil
}

// Output returns the stored output for domain
func (c Context) Output(domain Domain) (Output, bool) {
	o, ok := c.outputs[domain]
	return o, ok
}

// Details returns the details written by domain.
// Failed outputs contribute no details.
func (c Context) Details(domain Domain) (Details, bool) {
	o, ok := c.outputs[domain]
	if !ok || o.Failed() || o.Details == nil {
		return nil, false
	}
	return o.Details, true
}

// Outputs returns a copy of every stored output
func (c Context) Outputs() map[Domain]Output {
	out := make(map[Domain]Output, len(c.outputs))
	for d, o := range c.outputs {
		out[d] = o
	}
	return out
}

// Domains returns the stored domains in sorted order
func (c Context) Domains() []Domain {
	domains := make([]Domain, 0, len(c.outputs))
	for d := range c.outputs {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i] < domains[j] })
	return domains
}

// Lookup returns typed details for domain, or nil when absent or failed
func Lookup[T Details](c Context, domain Domain) (T, bool) {
	var zero T
	d, ok := c.Details(domain)
	if !ok {
		return zero, false
	}
	typed, ok := d.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
