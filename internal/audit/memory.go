package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/wonny/zuwa/backend/internal/contracts"
)

// MemoryRepository keeps decision records in process (DATABASE_URL 미설정 시)
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string][]byte // run_id → JSON
}

var _ contracts.DecisionRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string][]byte)}
}

// Save stores a JSON copy so later mutation of record has no effect
func (m *MemoryRepository) Save(_ context.Context, record *contracts.DecisionRecord) error {
	if record.RunID == "" {
		return fmt.Errorf("save decision record: run id is required")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal decision record: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.RunID] = data
	return nil
}

// GetByRunID retrieves one decision record
func (m *MemoryRepository) GetByRunID(_ context.Context, runID string) (*contracts.DecisionRecord, error) {
	m.mu.RLock()
	data, ok := m.records[runID]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	return decodeRecord(data)
}

// ListBySymbol returns the latest records for a symbol, newest first
func (m *MemoryRepository) ListBySymbol(_ context.Context, symbol string, limit int) ([]*contracts.DecisionRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	symbol = contracts.NormalizeSymbol(symbol)

	m.mu.RLock()
	var records []*contracts.DecisionRecord
	for _, data := range m.records {
		record, err := decodeRecord(data)
		if err != nil {
			m.mu.RUnlock()
			return nil, err
		}
		if record.Symbol == symbol {
			records = append(records, record)
		}
	}
	m.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].RunID > records[j].RunID
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
