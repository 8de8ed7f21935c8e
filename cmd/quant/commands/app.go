package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/wonny/zuwa/backend/internal/advisory"
	"github.com/wonny/zuwa/backend/internal/audit"
	"github.com/wonny/zuwa/backend/internal/brain"
	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/internal/external/eastmoney"
	"github.com/wonny/zuwa/backend/internal/s0_data"
	"github.com/wonny/zuwa/backend/internal/strategyconfig"
	"github.com/wonny/zuwa/backend/pkg/config"
	"github.com/wonny/zuwa/backend/pkg/database"
	"github.com/wonny/zuwa/backend/pkg/httputil"
	"github.com/wonny/zuwa/backend/pkg/logger"
	"github.com/wonny/zuwa/backend/pkg/metrics"
	"github.com/wonny/zuwa/backend/pkg/redis"
)

const keyPrefix = "zuwa"

// appOptions selects how the pipeline is wired
type appOptions struct {
	fixture string // 비어 있으면 Eastmoney 실시간 데이터 사용
	noStore bool   // 결정 기록을 저장하지 않음
}

// app holds every dependency a command needs
// ⭐ SSOT: 의존성 조립은 이 함수에서만
type app struct {
	cfg      *config.Config
	strategy *strategyconfig.Config
	log      *logger.Logger

	db      *database.DB  // nil = 메모리 저장소
	rdb     *redis.Client // disabled일 수 있음
	repo    *audit.CachedRepository
	metrics *metrics.Recorder
	orch    *brain.Orchestrator
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger (stderr: --json 출력은 stdout 전용)
	log := logger.NewWithWriter(cfg, os.Stderr)

	// 3. Load strategy
	strategy, err := strategyconfig.LoadOrDefault(cfg.StrategyPath)
	if err != nil {
		return nil, fmt.Errorf("load strategy %s: %w", cfg.StrategyPath, err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	a := &app{cfg: cfg, strategy: strategy, log: log, metrics: metrics.New()}

	// 4. Redis (cache + rate limit)
	a.rdb, err = redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 5. Decision store
	var store contracts.DecisionRepository = audit.NewMemoryRepository()
	if cfg.Database.Enabled() && !opts.noStore {
		db, err := database.New(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			a.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		a.db = db
		store = audit.NewRepository(db.Pool)
		log.Info("Decision records stored in PostgreSQL")
	}
	a.repo = audit.NewCachedRepository(store, redis.NewCache(a.rdb, keyPrefix), log)

	// 6. Data sources
	provider, src, err := a.sources(opts.fixture)
	if err != nil {
		a.Close()
		return nil, err
	}

	// 7. Advisory (optional)
	advisor, err := advisory.New(ctx, cfg.Advisory, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init advisory: %w", err)
	}

	// 8. Orchestrator
	orchOpts := []brain.Option{brain.WithMetrics(a.metrics)}
	if !opts.noStore {
		orchOpts = append(orchOpts, brain.WithRepository(a.repo))
	}
	a.orch = brain.New(provider, src, advisor, strategy, log, orchOpts...)

	return a, nil
}

// sources builds the S0 provider and S1 collaborators from a fixture file or Eastmoney
func (a *app) sources(fixture string) (*s0_data.Provider, brain.Sources, error) {
	if fixture != "" {
		fx, err := s0_data.LoadFixtures(fixture)
		if err != nil {
			return nil, brain.Sources{}, fmt.Errorf("load fixture: %w", err)
		}
		a.log.WithFields(map[string]interface{}{
			"path":    fixture,
			"symbols": fx.Symbols(),
		}).Info("Using fixture data")
		provider := s0_data.NewProvider(fx, nil, a.cfg.Provider.HistoryDays, a.log)
		return provider, brain.Sources{FundFlow: fx, News: fx, Sector: fx, Crowd: fx}, nil
	}

	httpClient := httputil.New(a.cfg, a.log)
	cache := redis.NewCache(a.rdb, keyPrefix)
	em := eastmoney.NewClient(httpClient, eastmoney.EndpointsFromConfig(a.cfg.Provider), a.log).
		WithRateLimiter(redis.NewRateLimiter(a.rdb, keyPrefix)).
		WithCache(cache)

	provider := s0_data.NewProvider(em, cache, a.cfg.Provider.HistoryDays, a.log).
		WithCacheTTL(a.cfg.Provider.CacheTTL)
	return provider, brain.Sources{FundFlow: em, News: em, Sector: em, Crowd: em}, nil
}

// Close releases the database pool and Redis client
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
}
