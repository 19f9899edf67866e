package domain

import (
	"github.com/shopspring/decimal"
)

// Seller is a consignment seller with a running balance and a provision
// rate. Balances and rates are exact decimals and are persisted in their
// canonical string form so no precision is lost through storage.
type Seller struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
	Rate    decimal.Decimal `json:"rate"`
}

// Apply adds a sale price to the seller's balance. Negative prices are
// refunds/adjustments and are applied the same way.
func (s *Seller) Apply(price decimal.Decimal) {
	s.Balance = s.Balance.Add(price)
}

// Provision is the share of the balance owed to the platform.
func (s *Seller) Provision() decimal.Decimal {
	return s.Balance.Mul(s.Rate)
}

// Earnings is the share of the balance owed to the seller.
func (s *Seller) Earnings() decimal.Decimal {
	return s.Balance.Mul(decimal.NewFromInt(1).Sub(s.Rate))
}

// Deletable reports whether the seller record may be removed.
// Only sellers with an exactly zero balance can be deleted.
func (s *Seller) Deletable() bool {
	return s.Balance.IsZero()
}

// IsValidRate reports whether rate is a valid provision rate in [0, 1].
func IsValidRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(decimal.NewFromInt(1))
}

// SellerPatch is a partial update of the mutable seller fields.
// Balance is deliberately absent: it only changes through settlement.
type SellerPatch struct {
	Name *string
	Rate *decimal.Decimal
}
