package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CreateSellerRequest is the request body for registering a seller.
// Rate binds as a json.Number so the exact decimal literal reaches
// the ledger unchanged.
type CreateSellerRequest struct {
	ID   string      `json:"id" binding:"required,max=100"`
	Name string      `json:"name" binding:"required,max=200"`
	Rate json.Number `json:"rate" binding:"required,rate"`
}

// PatchSellerRequest carries the mutable seller fields.
type PatchSellerRequest struct {
	Name *string      `json:"name"`
	Rate *json.Number `json:"rate"`
}

// DecodePatchSeller parses a PATCH /seller body. Any key other than
// "name" and "rate" comes back as unknownKey; ids and balances are
// immutable through this endpoint.
func DecodePatchSeller(data []byte) (req *PatchSellerRequest, unknownKey string, err error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, "", err
	}
	for key := range raw {
		if key != "name" && key != "rate" {
			return nil, key, nil
		}
	}

	req = &PatchSellerRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return nil, "", err
	}
	return req, "", nil
}

// SaleItemRequest is one entry of the POST /sell batch.
type SaleItemRequest struct {
	SellerID string      `json:"sellerId" binding:"required,max=100"`
	Price    json.Number `json:"price" binding:"required,decimal"`
}

// SellerResponse is the wire view of a seller. Decimal fields marshal
// as canonical strings.
type SellerResponse struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
	Rate    decimal.Decimal `json:"rate"`
}
