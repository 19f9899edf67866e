package ports

import (
	"context"
	"io"

	"consignment-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// TokenService issues signed bearer tokens and validates presented ones
// against the set issued during this process's lifetime. Validate takes
// the full Authorization header value and must compare in constant time.
type TokenService interface {
	Issue(host string) (string, error)
	Validate(header string) bool
}

// HashService handles secret hashing (Argon2id).
type HashService interface {
	Hash(secret string) (string, error)
	Verify(secret string, hash string) (bool, error)
}

// AuthService checks the shared panel secret and returns a bearer token.
type AuthService interface {
	Login(ctx context.Context, password, host string) (string, error)
}

// SellerService is the registry of seller records. Delete returns the
// final view of the removed record.
type SellerService interface {
	List(ctx context.Context) ([]domain.Seller, error)
	Get(ctx context.Context, id string) (*domain.Seller, error)
	Create(ctx context.Context, id, name string, rate decimal.Decimal) (*domain.Seller, error)
	Patch(ctx context.Context, id string, patch domain.SellerPatch) (*domain.Seller, error)
	Delete(ctx context.Context, id string) (*domain.Seller, error)
}

// SettlementService validates a sale batch against the registry and
// applies it atomically. On rejection the returned error is a
// *domain.SettlementError carrying the full per-item report; on success
// it returns the updated view of every distinct affected seller.
type SettlementService interface {
	Settle(ctx context.Context, items []domain.SaleItem, origin string) ([]domain.Seller, error)
}

// TrailService records settled batches asynchronously. Record must not
// fail the settlement that calls it.
type TrailService interface {
	Record(items []domain.SaleItem, origin string)
}

// ExportService writes registry reports.
type ExportService interface {
	WriteCSV(ctx context.Context, w io.Writer) error
}
