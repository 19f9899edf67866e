package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"consignment-ledger/internal/core/domain"
)

// TrailRepo implements ports.TrailRepository.
type TrailRepo struct {
	pool Pool
}

// NewTrailRepo creates a new TrailRepo.
func NewTrailRepo(pool Pool) *TrailRepo {
	return &TrailRepo{pool: pool}
}

// Append inserts a trail entry. The batch items are stored as a JSONB
// document in submission order.
func (r *TrailRepo) Append(ctx context.Context, entry *domain.TrailEntry) error {
	items, err := json.Marshal(entry.Items)
	if err != nil {
		return fmt.Errorf("marshal trail items: %w", err)
	}

	query := `INSERT INTO trail_entries (id, origin, items, recorded_at) VALUES ($1, $2, $3, $4)`

	if _, err := r.pool.Exec(ctx, query, entry.ID, entry.Origin, items, entry.RecordedAt); err != nil {
		return fmt.Errorf("insert trail entry: %w", err)
	}
	return nil
}
