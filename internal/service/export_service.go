package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"consignment-ledger/internal/core/ports"
	"consignment-ledger/pkg/apperror"
)

// csvHeader matches the column layout the panel's bookkeeping import
// expects. Do not reorder.
var csvHeader = []string{"Trader ID", "Name", "Sum of all Sales", "Provision Rate", "Total Provision", "Trader earnings"}

// CSVExportService implements ports.ExportService.
type CSVExportService struct {
	sellerRepo ports.SellerRepository
}

// NewCSVExportService creates a new CSVExportService.
func NewCSVExportService(sellerRepo ports.SellerRepository) *CSVExportService {
	return &CSVExportService{sellerRepo: sellerRepo}
}

// WriteCSV streams the seller earnings report to w, one row per
// registered seller ordered by id.
func (s *CSVExportService) WriteCSV(ctx context.Context, w io.Writer) error {
	sellers, err := s.sellerRepo.List(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("list sellers: %w", err))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return apperror.InternalError(fmt.Errorf("write csv header: %w", err))
	}

	for _, seller := range sellers {
		row := []string{
			seller.ID,
			seller.Name,
			seller.Balance.String(),
			seller.Rate.String(),
			seller.Provision().String(),
			seller.Earnings().String(),
		}
		if err := cw.Write(row); err != nil {
			return apperror.InternalError(fmt.Errorf("write csv row: %w", err))
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperror.InternalError(fmt.Errorf("flush csv: %w", err))
	}
	return nil
}
