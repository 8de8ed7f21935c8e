package contracts

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_WithIsImmutable(t *testing.T) {
	root := NewContext(MarketSnapshot{Symbol: "600519"})
	out := NewOutput(DomainTechnical, "technical", SignalBullish, 60, "", &TechnicalDetails{Score: 80}, time.Now())

	next, err := root.With(out)
	require.NoError(t, err)

	_, ok := root.Output(DomainTechnical)
	assert.False(t, ok, "root snapshot must not see later writes")

	got, ok := next.Output(DomainTechnical)
	require.True(t, ok)
	assert.Equal(t, 60.0, got.Confidence)
	assert.Equal(t, "600519", next.Symbol())
}

func TestContext_RejectsDuplicateDomain(t *testing.T) {
	out := NewOutput(DomainSector, "sector", SignalNeutral, 10, "", &SectorDetails{}, time.Now())

	c, err := NewContext(MarketSnapshot{}).With(out)
	require.NoError(t, err)

	_, err = c.With(out)
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	_, err = NewContext(MarketSnapshot{}).With(out, out)
	assert.True(t, errors.Is(err, ErrDuplicateKey))
}

func TestContext_FailedOutputHasNoDetails(t *testing.T) {
	failed := FailureOutput(DomainCapital, "capital", "boom", time.Now())
	c, err := NewContext(MarketSnapshot{}).With(failed)
	require.NoError(t, err)

	_, ok := c.Details(DomainCapital)
	assert.False(t, ok)

	o, ok := c.Output(DomainCapital)
	assert.True(t, ok)
	assert.True(t, o.Failed())
}

func TestLookup(t *testing.T) {
	c, err := NewContext(MarketSnapshot{}).With(
		NewOutput(DomainTechnical, "technical", SignalNeutral, 0, "", &TechnicalDetails{Score: 55}, time.Now()),
	)
	require.NoError(t, err)

	tech, ok := Lookup[*TechnicalDetails](c, DomainTechnical)
	require.True(t, ok)
	assert.Equal(t, 55.0, tech.Score)

	_, ok = Lookup[*CapitalDetails](c, DomainTechnical)
	assert.False(t, ok)

	_, ok = Lookup[*CapitalDetails](c, DomainCapital)
	assert.False(t, ok)
}

func TestContext_DomainsSorted(t *testing.T) {
	c, err := NewContext(MarketSnapshot{}).With(
		FailureOutput(DomainTechnical, "technical", "x", time.Now()),
		FailureOutput(DomainBear, "bear", "x", time.Now()),
		FailureOutput(DomainCapital, "capital", "x", time.Now()),
	)
	require.NoError(t, err)
	assert.Equal(t, []Domain{DomainBear, DomainCapital, DomainTechnical}, c.Domains())
}
