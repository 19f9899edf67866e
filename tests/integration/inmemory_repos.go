package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"consignment-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Seller Repo ---

type inMemorySellerRepo struct {
	mu      sync.RWMutex
	sellers map[string]domain.Seller
}

func newInMemorySellerRepo() *inMemorySellerRepo {
	return &inMemorySellerRepo{sellers: make(map[string]domain.Seller)}
}

func (r *inMemorySellerRepo) List(ctx context.Context) ([]domain.Seller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Seller, 0, len(r.sellers))
	for _, s := range r.sellers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *inMemorySellerRepo) Get(ctx context.Context, id string) (*domain.Seller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sellers[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *inMemorySellerRepo) Create(ctx context.Context, seller *domain.Seller) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sellers[seller.ID]; ok {
		return fmt.Errorf("seller already exists")
	}
	r.sellers[seller.ID] = *seller
	return nil
}

func (r *inMemorySellerRepo) Update(ctx context.Context, seller *domain.Seller) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.sellers[seller.ID]
	if !ok {
		return fmt.Errorf("seller not found")
	}
	existing.Name = seller.Name
	existing.Rate = seller.Rate
	r.sellers[seller.ID] = existing
	return nil
}

func (r *inMemorySellerRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sellers[id]; !ok {
		return fmt.Errorf("seller not found")
	}
	delete(r.sellers, id)
	return nil
}

func (r *inMemorySellerRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, sellers []domain.Seller) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range sellers {
		existing, ok := r.sellers[s.ID]
		if !ok {
			return fmt.Errorf("seller row missing: %s", s.ID)
		}
		existing.Balance = s.Balance
		r.sellers[s.ID] = existing
	}
	return nil
}

// --- In-Memory Trail Repo ---

type inMemoryTrailRepo struct {
	mu      sync.Mutex
	entries []domain.TrailEntry
}

func newInMemoryTrailRepo() *inMemoryTrailRepo {
	return &inMemoryTrailRepo{}
}

func (r *inMemoryTrailRepo) Append(ctx context.Context, entry *domain.TrailEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *inMemoryTrailRepo) all() []domain.TrailEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.TrailEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
