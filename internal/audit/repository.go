package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/zuwa/backend/internal/contracts"
)

// ErrNotFound is returned when no decision record matches
var ErrNotFound = errors.New("decision record not found")

// DefaultListLimit caps history queries without an explicit limit
const DefaultListLimit = 20

// Repository handles decision record persistence
// ⭐ SSOT: Audit 데이터 저장/조회는 여기서만
//
// 레코드 전체(분석가 출력 포함)는 JSONB로 저장하고, 조회용 컬럼만 분리한다.
type Repository struct {
	pool *pgxpool.Pool
}

var _ contracts.DecisionRepository = (*Repository)(nil)

// NewRepository creates a new audit repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save upserts a decision record by run id
func (r *Repository) Save(ctx context.Context, record *contracts.DecisionRecord) error {
	if record.RunID == "" {
		return fmt.Errorf("save decision record: run id is required")
	}

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal decision record: %w", err)
	}

	query := `
		INSERT INTO audit.decision_records (
			run_id, symbol, name, rating, composite_score, rating_confidence,
			config_hash, record, decided_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			rating = EXCLUDED.rating,
			composite_score = EXCLUDED.composite_score,
			rating_confidence = EXCLUDED.rating_confidence,
			config_hash = EXCLUDED.config_hash,
			record = EXCLUDED.record,
			decided_at = EXCLUDED.decided_at
	`

	_, err = r.pool.Exec(ctx, query,
		record.RunID, record.Symbol, record.Name, string(record.Rating),
		record.CompositeScore, record.RatingConfidence, record.ConfigHash,
		recordJSON, record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save decision record: %w", err)
	}

	return nil
}

// GetByRunID retrieves one decision record
func (r *Repository) GetByRunID(ctx context.Context, runID string) (*contracts.DecisionRecord, error) {
	query := `
		SELECT record
		FROM audit.decision_records
		WHERE run_id = $1
	`

	var recordJSON []byte
	err := r.pool.QueryRow(ctx, query, runID).Scan(&recordJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get decision record: %w", err)
	}

	return decodeRecord(recordJSON)
}

// ListBySymbol returns the latest records for a symbol, newest first
func (r *Repository) ListBySymbol(ctx context.Context, symbol string, limit int) ([]*contracts.DecisionRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT record
		FROM audit.decision_records
		WHERE symbol = $1
		ORDER BY decided_at DESC, run_id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, contracts.NormalizeSymbol(symbol), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decision records: %w", err)
	}
	defer rows.Close()

	var records []*contracts.DecisionRecord
	for rows.Next() {
		var recordJSON []byte
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, fmt.Errorf("failed to scan decision record: %w", err)
		}
		record, err := decodeRecord(recordJSON)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate decision records: %w", err)
	}

	return records, nil
}

func decodeRecord(data []byte) (*contracts.DecisionRecord, error) {
	var record contracts.DecisionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decision record: %w", err)
	}
	return &record, nil
}
