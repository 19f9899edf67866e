package domain

import (
	"time"

	"github.com/google/uuid"
)

// TrailEntry is the durable record of one settled batch, keyed by the
// client origin that submitted it. Entries are append-only and are
// written after the ledger commit; they are not authoritative for
// current balances.
type TrailEntry struct {
	ID         uuid.UUID  `json:"id"`
	Origin     string     `json:"origin"`
	Items      []SaleItem `json:"items"`
	RecordedAt time.Time  `json:"recorded_at"`
}
