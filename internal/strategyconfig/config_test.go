package strategyconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 0.20, cfg.Weights.Technical)
	assert.Equal(t, 0.25, cfg.Weights.Capital)
	assert.Equal(t, 0.20, cfg.Weights.Intelligence)
	assert.Equal(t, 0.15, cfg.Weights.Sector)
	assert.Equal(t, 0.10, cfg.Weights.BullView)
	assert.Equal(t, 0.10, cfg.Weights.BearView)
	assert.Equal(t, 0.05, cfg.Weights.CrowdSentiment)

	assert.Equal(t, RatingThresholds{StrongBuy: 80, Buy: 60, Hold: 40, Sell: 20}, cfg.Thresholds)
	assert.Equal(t, 10.0, cfg.Debate.BullBias)
	assert.Equal(t, 10.0, cfg.Debate.BearBias)
	assert.Equal(t, 85.0, cfg.Sentiment.ExtremeGreed)
	assert.Equal(t, 70.0, cfg.Sentiment.Greed)
	assert.Equal(t, 30.0, cfg.Sentiment.Fear)
	assert.Equal(t, 15.0, cfg.Sentiment.ExtremeFear)
	assert.Equal(t, 10*time.Second, cfg.Analysts.Timeout)

	require.NoError(t, Validate(cfg))
	assert.Empty(t, Warn(cfg))
}

func TestParse_EmptyDocumentUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_OverridesOnlyGivenFields(t *testing.T) {
	cfg, err := Parse([]byte(`
weights:
  technical: 0
  capital: 0.5
analysts:
  timeout: 3s
`))
	require.NoError(t, err)

	// explicit zero survives; untouched fields keep defaults
	assert.Equal(t, 0.0, cfg.Weights.Technical)
	assert.Equal(t, 0.5, cfg.Weights.Capital)
	assert.Equal(t, 0.20, cfg.Weights.Intelligence)
	assert.Equal(t, 3*time.Second, cfg.Analysts.Timeout)
}

func TestParse_UnknownFieldFails(t *testing.T) {
	_, err := Parse([]byte("weights:\n  technicl: 0.3\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"negative weight", func(c *Config) { c.Weights.Capital = -0.1 }, "weights.capital"},
		{"all weights zero", func(c *Config) { c.Weights = Weights{} }, "weights"},
		{"thresholds not decreasing", func(c *Config) { c.Thresholds.Buy = 85 }, "thresholds.buy"},
		{"sell above hold", func(c *Config) { c.Thresholds.Sell = 45 }, "thresholds.sell"},
		{"sentiment greed above extreme", func(c *Config) { c.Sentiment.Greed = 90 }, "sentiment.greed"},
		{"base above max", func(c *Config) { c.Debate.BaseConfidence = 99 }, "debate.base_confidence"},
		{"zero timeout", func(c *Config) { c.Analysts.Timeout = 0 }, "analysts.timeout"},
		{"missing strategy id", func(c *Config) { c.Meta.StrategyID = "" }, "meta.strategy_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var verr ValidationError
			require.True(t, errors.As(err, &verr), "got %T: %v", err, err)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestWarn(t *testing.T) {
	cfg := Default()
	cfg.Debate.BullBias = 20
	cfg.Weights.Technical = 0.5

	codes := []string{}
	for _, w := range Warn(cfg) {
		codes = append(codes, w.Code)
	}
	assert.ElementsMatch(t, []string{"WEIGHTS_NOT_NORMALIZED", "ASYMMETRIC_BIAS"}, codes)
}

func TestHash(t *testing.T) {
	a := Default()
	b := Default()

	ha, err := Hash(a)
	require.NoError(t, err)
	assert.Len(t, ha, 64)

	hb, _ := Hash(b)
	assert.Equal(t, ha, hb, "hash not deterministic")

	b.Weights.Sector = 0.16
	hc, _ := Hash(b)
	assert.NotEqual(t, ha, hc)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debate:\n  bull_bias: 5\n"), 0o644))

	cfg, raw, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.Debate.BullBias)
	assert.NotEmpty(t, raw)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRepositoryConfig(t *testing.T) {
	path := "../../config/agents.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Weights, cfg.Weights)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
