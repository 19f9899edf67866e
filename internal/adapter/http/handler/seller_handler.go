package handler

import (
	"io"

	"consignment-ledger/internal/adapter/http/dto"
	"consignment-ledger/internal/core/domain"
	"consignment-ledger/internal/core/ports"
	"consignment-ledger/pkg/apperror"
	"consignment-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// SellerHandler handles the seller registry endpoints.
type SellerHandler struct {
	sellerSvc ports.SellerService
}

// NewSellerHandler creates a new SellerHandler.
func NewSellerHandler(sellerSvc ports.SellerService) *SellerHandler {
	return &SellerHandler{sellerSvc: sellerSvc}
}

// List handles GET /sellers.
func (h *SellerHandler) List(c *gin.Context) {
	sellers, err := h.sellerSvc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toSellerList(sellers))
}

// Get handles GET /sellers/:id.
func (h *SellerHandler) Get(c *gin.Context) {
	seller, err := h.sellerSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toSellerResponse(seller))
}

// Create handles POST /seller.
func (h *SellerHandler) Create(c *gin.Context) {
	var req dto.CreateSellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	rate, err := decimal.NewFromString(req.Rate.String())
	if err != nil {
		response.Error(c, apperror.Validation("rate must be a decimal number"))
		return
	}

	seller, err := h.sellerSvc.Create(c.Request.Context(), req.ID, req.Name, rate)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toSellerResponse(seller))
}

// Patch handles PATCH /seller/:id. Only name and rate are mutable;
// any other key in the body is rejected.
func (h *SellerHandler) Patch(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.Validation("unreadable request body"))
		return
	}

	req, unknownKey, err := dto.DecodePatchSeller(body)
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	if unknownKey != "" {
		response.Error(c, apperror.ErrInvalidField(unknownKey))
		return
	}

	patch := domain.SellerPatch{Name: req.Name}
	if req.Rate != nil {
		rate, err := decimal.NewFromString(req.Rate.String())
		if err != nil {
			response.Error(c, apperror.Validation("rate must be a decimal number"))
			return
		}
		patch.Rate = &rate
	}

	seller, err := h.sellerSvc.Patch(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toSellerResponse(seller))
}

// Delete handles DELETE /seller/:id and returns the final view of the
// removed record.
func (h *SellerHandler) Delete(c *gin.Context) {
	seller, err := h.sellerSvc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toSellerResponse(seller))
}

func toSellerResponse(s *domain.Seller) dto.SellerResponse {
	return dto.SellerResponse{
		ID:      s.ID,
		Name:    s.Name,
		Balance: s.Balance,
		Rate:    s.Rate,
	}
}

func toSellerList(sellers []domain.Seller) []dto.SellerResponse {
	out := make([]dto.SellerResponse, 0, len(sellers))
	for i := range sellers {
		out = append(out, toSellerResponse(&sellers[i]))
	}
	return out
}
