package postgres

import (
	"context"
	"errors"
	"fmt"

	"consignment-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// SellerRepo implements ports.SellerRepository.
//
// Balances and rates are stored as TEXT in canonical decimal form;
// the database hands back exactly the digits that were written.
type SellerRepo struct {
	pool Pool
}

// NewSellerRepo creates a new SellerRepo.
func NewSellerRepo(pool Pool) *SellerRepo {
	return &SellerRepo{pool: pool}
}

// List returns all sellers ordered by id.
func (r *SellerRepo) List(ctx context.Context) ([]domain.Seller, error) {
	query := `SELECT id, name, balance, rate FROM sellers ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sellers: %w", err)
	}
	defer rows.Close()

	var sellers []domain.Seller
	for rows.Next() {
		seller, err := scanSeller(rows)
		if err != nil {
			return nil, fmt.Errorf("scan seller: %w", err)
		}
		sellers = append(sellers, *seller)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sellers: %w", err)
	}
	return sellers, nil
}

// Get fetches a seller by id. Returns (nil, nil) when no seller with
// that id exists.
func (r *SellerRepo) Get(ctx context.Context, id string) (*domain.Seller, error) {
	query := `SELECT id, name, balance, rate FROM sellers WHERE id = $1`

	seller, err := scanSeller(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get seller by id: %w", err)
	}
	return seller, nil
}

// Create inserts a new seller.
func (r *SellerRepo) Create(ctx context.Context, s *domain.Seller) error {
	query := `INSERT INTO sellers (id, name, balance, rate) VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query, s.ID, s.Name, s.Balance.String(), s.Rate.String())
	if err != nil {
		return fmt.Errorf("insert seller: %w", err)
	}
	return nil
}

// Update persists a seller's name and provision rate. Balances move
// exclusively through UpdateBalances.
func (r *SellerRepo) Update(ctx context.Context, s *domain.Seller) error {
	query := `UPDATE sellers SET name = $1, rate = $2 WHERE id = $3`

	_, err := r.pool.Exec(ctx, query, s.Name, s.Rate.String(), s.ID)
	if err != nil {
		return fmt.Errorf("update seller: %w", err)
	}
	return nil
}

// Delete removes a seller row.
func (r *SellerRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM sellers WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete seller: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("delete seller: no row for %s", id)
	}
	return nil
}

// UpdateBalances writes the settled balances inside the given
// transaction, one row per affected seller.
func (r *SellerRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, sellers []domain.Seller) error {
	query := `UPDATE sellers SET balance = $1 WHERE id = $2`

	for _, s := range sellers {
		tag, err := tx.Exec(ctx, query, s.Balance.String(), s.ID)
		if err != nil {
			return fmt.Errorf("update balance for %s: %w", s.ID, err)
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("update balance for %s: seller row missing", s.ID)
		}
	}
	return nil
}

func scanSeller(row pgx.Row) (*domain.Seller, error) {
	var (
		s             domain.Seller
		balance, rate string
	)
	if err := row.Scan(&s.ID, &s.Name, &balance, &rate); err != nil {
		return nil, err
	}

	var err error
	if s.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("parse balance %q: %w", balance, err)
	}
	if s.Rate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", rate, err)
	}
	return &s, nil
}
