package domain

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// SaleItem is one position of a settlement batch. It lives for the
// duration of a single request; only its effect on the seller balance
// and the trail copy survive.
type SaleItem struct {
	SellerID string          `json:"sellerId"`
	Price    decimal.Decimal `json:"price"`
}

// ItemError describes why one batch item was rejected: the invalid
// field names and one reason per field. It marshals as the pair
// [fields, reasons] the panel frontend expects.
type ItemError struct {
	Fields  []string
	Reasons []string
}

func (e ItemError) MarshalJSON() ([]byte, error) {
	return json.Marshal([2][]string{e.Fields, e.Reasons})
}

// SettlementReport maps a batch item index (formatted as a string key)
// to the errors found on that item. A non-empty report rejects the
// whole batch.
type SettlementReport map[string]ItemError

// Add records an invalid field with its reason against a batch index.
func (r SettlementReport) Add(index int, field, reason string) {
	key := strconv.Itoa(index)
	e := r[key]
	e.Fields = append(e.Fields, field)
	e.Reasons = append(e.Reasons, reason)
	r[key] = e
}

// SettlementError carries the full per-item report of a rejected batch.
// No balance mutation has happened when this error is returned.
type SettlementError struct {
	Report SettlementReport
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement rejected: %d invalid item(s)", len(e.Report))
}
