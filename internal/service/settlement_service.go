package service

import (
	"context"
	"fmt"

	"consignment-ledger/internal/core/domain"
	"consignment-ledger/pkg/apperror"

	"github.com/shopspring/decimal"
)

// Settle applies a batch of sale items to seller balances.
//
// The whole batch is validated against a snapshot of the registry
// before anything is written: every item referencing an unknown
// seller is collected into a report keyed by item index, and a single
// offender rejects the entire batch. A valid batch collapses into one
// delta per seller and commits in a single database transaction. The
// trail is notified for every accepted batch, including empty ones.
func (s *LedgerService) Settle(ctx context.Context, items []domain.SaleItem, origin string) ([]domain.Seller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sellers, err := s.sellerRepo.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("snapshot sellers: %w", err))
	}

	byID := make(map[string]*domain.Seller, len(sellers))
	for i := range sellers {
		byID[sellers[i].ID] = &sellers[i]
	}

	report := domain.SettlementReport{}
	for i, item := range items {
		if _, ok := byID[item.SellerID]; !ok {
			report.Add(i, "sellerId", "seller does not exist")
		}
	}
	if len(report) > 0 {
		return nil, &domain.SettlementError{Report: report}
	}

	if len(items) == 0 {
		s.trail.Record(items, origin)
		return []domain.Seller{}, nil
	}

	// Collapse the batch into one delta per seller, keeping the order
	// in which sellers first appear.
	deltas := make(map[string]decimal.Decimal, len(byID))
	var order []string
	for _, item := range items {
		delta, seen := deltas[item.SellerID]
		if !seen {
			order = append(order, item.SellerID)
		}
		deltas[item.SellerID] = delta.Add(item.Price)
	}

	affected := make([]domain.Seller, 0, len(order))
	for _, id := range order {
		seller := *byID[id]
		seller.Apply(deltas[id])
		affected = append(affected, seller)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.sellerRepo.UpdateBalances(ctx, dbTx, affected); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balances: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.trail.Record(items, origin)

	s.log.Info().
		Int("items", len(items)).
		Int("sellers", len(affected)).
		Str("origin", origin).
		Msg("settlement committed")

	return affected, nil
}
