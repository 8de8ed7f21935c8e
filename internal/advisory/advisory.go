package advisory

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/pkg/config"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

// Provider names accepted in ADVISORY_PROVIDER
const (
	ProviderNone   = "none"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

// completer sends one system+user prompt and returns the raw text reply
type completer interface {
	complete(ctx context.Context, system, prompt string) (string, error)
}

// Advisor asks an LLM for a second opinion on the long side.
// Calls are throttled by a token bucket and bounded by a timeout.
type Advisor struct {
	provider string
	llm      completer
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *logger.Logger
}

// New builds the advisor named by cfg.Provider.
// Returns (nil, nil) when advisory is disabled so callers can pass the result straight through.
func New(ctx context.Context, cfg config.AdvisoryConfig, log *logger.Logger) (contracts.Advisor, error) {
	var llm completer

	switch cfg.Provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderClaude:
		llm = newClaude(cfg)
	case ProviderGemini:
		g, err := newGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		llm = g
	default:
		return nil, fmt.Errorf("unknown advisory provider: %s", cfg.Provider)
	}

	return newAdvisor(cfg.Provider, llm, cfg.RatePerMinute, cfg.Timeout, log), nil
}

func newAdvisor(provider string, llm completer, perMinute int, timeout time.Duration, log *logger.Logger) *Advisor {
	if perMinute <= 0 {
		perMinute = 20
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Advisor{
		provider: provider,
		llm:      llm,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		timeout:  timeout,
		logger:   log.WithComponent("advisory"),
	}
}

// Name returns the provider name
func (a *Advisor) Name() string { return a.provider }

// Advise requests a structured opinion. Any transport or parse failure is returned as an error.
func (a *Advisor) Advise(ctx context.Context, req contracts.AdvisoryRequest) (*contracts.Advice, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("advisory rate limit: %w", err)
	}

	start := time.Now()
	reply, err := a.llm.complete(ctx, systemPrompt, BuildPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("%s completion: %w", a.provider, err)
	}

	advice, err := ParseAdvice(reply)
	if err != nil {
		return nil, fmt.Errorf("%s reply: %w", a.provider, err)
	}
	advice.Provider = a.provider

	a.logger.WithFields(map[string]interface{}{
		"symbol":     req.Symbol,
		"signal":     advice.Signal,
		"confidence": advice.Confidence,
		"duration":   time.Since(start).String(),
	}).Debug("Advisory received")

	return advice, nil
}
