package audit

import (
	"context"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/pkg/logger"
	"github.com/wonny/zuwa/backend/pkg/redis"
)

// CachedRepository keeps the latest decision per symbol in Redis
type CachedRepository struct {
	contracts.DecisionRepository
	cache  *redis.Cache
	logger *logger.Logger
}

// NewCachedRepository wraps repo. A disabled Redis client makes it a pass-through.
func NewCachedRepository(repo contracts.DecisionRepository, cache *redis.Cache, log *logger.Logger) *CachedRepository {
	return &CachedRepository{DecisionRepository: repo, cache: cache, logger: log.WithComponent("audit")}
}

// Save persists the record, then refreshes the latest-decision cache
func (c *CachedRepository) Save(ctx context.Context, record *contracts.DecisionRecord) error {
	if err := c.DecisionRepository.Save(ctx, record); err != nil {
		return err
	}
	if err := c.cache.Set(ctx, redis.DecisionKey(record.Symbol), record, redis.TTLDaily); err != nil {
		// 캐시 실패는 저장 실패가 아님
		c.logger.WithError(err).WithField("symbol", record.Symbol).Warn("Failed to cache latest decision")
	}
	return nil
}

// Latest returns the most recent record for symbol
func (c *CachedRepository) Latest(ctx context.Context, symbol string) (*contracts.DecisionRecord, error) {
	symbol = contracts.NormalizeSymbol(symbol)

	var record contracts.DecisionRecord
	found, err := c.cache.Get(ctx, redis.DecisionKey(symbol), &record)
	if err != nil {
		c.logger.WithError(err).WithField("symbol", symbol).Debug("Latest decision cache read failed")
	}
	if found {
		return &record, nil
	}

	records, err := c.DecisionRepository.ListBySymbol(ctx, symbol, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}
