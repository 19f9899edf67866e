package service

import (
	"context"
	"fmt"
	"sync"

	"consignment-ledger/internal/core/domain"
	"consignment-ledger/internal/core/ports"
	"consignment-ledger/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerService implements ports.SellerService and
// ports.SettlementService on top of the seller repository.
//
// A single mutex serializes every mutating operation, registry writes
// and settlements alike, so a settlement never observes a half-applied
// registry change. Reads go straight to the repository.
type LedgerService struct {
	mu         sync.Mutex
	sellerRepo ports.SellerRepository
	transactor ports.DBTransactor
	trail      ports.TrailService
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	sellerRepo ports.SellerRepository,
	transactor ports.DBTransactor,
	trail ports.TrailService,
	log zerolog.Logger,
) *LedgerService {
	return &LedgerService{
		sellerRepo: sellerRepo,
		transactor: transactor,
		trail:      trail,
		log:        log,
	}
}

// List returns every registered seller ordered by id.
func (s *LedgerService) List(ctx context.Context) ([]domain.Seller, error) {
	sellers, err := s.sellerRepo.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list sellers: %w", err))
	}
	return sellers, nil
}

// Get returns a single seller by id.
func (s *LedgerService) Get(ctx context.Context, id string) (*domain.Seller, error) {
	seller, err := s.sellerRepo.Get(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get seller: %w", err))
	}
	if seller == nil {
		return nil, apperror.ErrSellerNotFound(id)
	}
	return seller, nil
}

// Create registers a new seller with a zero balance.
func (s *LedgerService) Create(ctx context.Context, id, name string, rate decimal.Decimal) (*domain.Seller, error) {
	if !domain.IsValidRate(rate) {
		return nil, apperror.Validation("rate must be between 0 and 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.sellerRepo.Get(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check seller: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrSellerExists(id)
	}

	seller := &domain.Seller{
		ID:      id,
		Name:    name,
		Balance: decimal.Zero,
		Rate:    rate,
	}

	if err := s.sellerRepo.Create(ctx, seller); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create seller: %w", err))
	}

	return seller, nil
}

// Patch applies a partial update to a seller. Only the name and the
// provision rate may change; balances move exclusively through
// settlements.
func (s *LedgerService) Patch(ctx context.Context, id string, patch domain.SellerPatch) (*domain.Seller, error) {
	if patch.Rate != nil && !domain.IsValidRate(*patch.Rate) {
		return nil, apperror.Validation("rate must be between 0 and 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seller, err := s.sellerRepo.Get(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get seller: %w", err))
	}
	if seller == nil {
		return nil, apperror.ErrSellerNotFound(id)
	}

	if patch.Name != nil {
		seller.Name = *patch.Name
	}
	if patch.Rate != nil {
		seller.Rate = *patch.Rate
	}

	if err := s.sellerRepo.Update(ctx, seller); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update seller: %w", err))
	}

	return seller, nil
}

// Delete removes a seller and returns its final state. A seller with
// a non-zero balance may not be deleted.
func (s *LedgerService) Delete(ctx context.Context, id string) (*domain.Seller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seller, err := s.sellerRepo.Get(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get seller: %w", err))
	}
	if seller == nil {
		return nil, apperror.ErrSellerNotFound(id)
	}
	if !seller.Deletable() {
		return nil, apperror.ErrNonZeroBalance()
	}

	if err := s.sellerRepo.Delete(ctx, id); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("delete seller: %w", err))
	}

	return seller, nil
}
