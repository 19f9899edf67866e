package ports

import (
	"context"

	"consignment-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// SellerRepository defines persistence operations for sellers.
// UpdateBalances accepts a pgx.Tx so a settled batch commits as one unit.
type SellerRepository interface {
	List(ctx context.Context) ([]domain.Seller, error)
	Get(ctx context.Context, id string) (*domain.Seller, error)
	Create(ctx context.Context, seller *domain.Seller) error
	Update(ctx context.Context, seller *domain.Seller) error
	Delete(ctx context.Context, id string) error
	UpdateBalances(ctx context.Context, tx pgx.Tx, sellers []domain.Seller) error
}

// TrailRepository appends settled batches to the durable trail sink.
type TrailRepository interface {
	Append(ctx context.Context, entry *domain.TrailEntry) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
