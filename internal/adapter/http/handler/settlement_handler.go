package handler

import (
	"errors"
	"net/http"

	"consignment-ledger/internal/adapter/http/dto"
	"consignment-ledger/internal/core/domain"
	"consignment-ledger/internal/core/ports"
	"consignment-ledger/pkg/apperror"
	"consignment-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// SettlementHandler handles batch settlement and registry export.
type SettlementHandler struct {
	settlementSvc ports.SettlementService
	exportSvc     ports.ExportService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementSvc ports.SettlementService, exportSvc ports.ExportService) *SettlementHandler {
	return &SettlementHandler{settlementSvc: settlementSvc, exportSvc: exportSvc}
}

// Sell handles POST /sell. A rejected batch answers 400 with the bare
// per-item error report; a settled batch answers 200 with the updated
// view of every affected seller.
func (h *SettlementHandler) Sell(c *gin.Context) {
	var batch []dto.SaleItemRequest
	if err := c.ShouldBindJSON(&batch); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	items := make([]domain.SaleItem, 0, len(batch))
	for _, entry := range batch {
		price, err := decimal.NewFromString(entry.Price.String())
		if err != nil {
			response.Error(c, apperror.Validation("price must be a decimal number"))
			return
		}
		items = append(items, domain.SaleItem{SellerID: entry.SellerID, Price: price})
	}

	sellers, err := h.settlementSvc.Settle(c.Request.Context(), items, c.ClientIP())
	if err != nil {
		var setErr *domain.SettlementError
		if errors.As(err, &setErr) {
			c.JSON(http.StatusBadRequest, setErr.Report)
			return
		}
		response.Error(c, err)
		return
	}

	response.OK(c, toSellerList(sellers))
}

// ExportCSV handles GET /exportcsv and streams the registry report as
// a CSV attachment.
func (h *SettlementHandler) ExportCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename=sellers.csv")

	if err := h.exportSvc.WriteCSV(c.Request.Context(), c.Writer); err != nil {
		if c.Writer.Written() {
			// Part of the stream is already out; the status line
			// cannot be taken back.
			return
		}
		c.Writer.Header().Del("Content-Disposition")
		c.Writer.Header().Del("Content-Type")
		response.Error(c, err)
	}
}
