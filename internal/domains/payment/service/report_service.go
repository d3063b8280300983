package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"storefront-backend/internal/domains/payment/model"
	"storefront-backend/internal/domains/payment/repository"
	"storefront-backend/pkg/logger"
)

type reportService struct {
	paymentRepo repository.PaymentRepoInterface
	refundRepo  repository.RefundRepoInterface
}

func NewReportService(
	paymentRepo repository.PaymentRepoInterface,
	refundRepo repository.RefundRepoInterface,
) ReportService {
	return &reportService{
		paymentRepo: paymentRepo,
		refundRepo:  refundRepo,
	}
}

// BuildSettlementReport implements ReportService
func (s *reportService) BuildSettlementReport(ctx context.Context, from, to time.Time) (*excelize.File, int, error) {
	// Dates arrive at midnight; widen the end by a day so the range
	// covers the whole closing date
	txns, err := s.paymentRepo.ListCompletedBetween(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list completed transactions: %w", err)
	}

	f, err := s.buildSettlementExcelFile(ctx, txns)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build excel file: %w", err)
	}

	logger.Info("Built settlement report", map[string]interface{}{
		"from":         from.Format("2006-01-02"),
		"to":           to.Format("2006-01-02"),
		"transactions": len(txns),
	})
	return f, len(txns), nil
}

func (s *reportService) buildSettlementExcelFile(ctx context.Context, txns []*model.PaymentTransaction) (*excelize.File, error) {
	f := excelize.NewFile()

	sheetName := "Settlements"
	// Rename default sheet
	f.SetSheetName("Sheet1", sheetName)

	// Row 1: Header
	headers := []string{
		"Transaction ID",
		"Order ID",
		"Provider",
		"Merchant Transaction ID",
		"Provider Reference ID",
		"Amount",
		"Currency",
		"UTR",
		"Payer VPA",
		"Instrument",
		"Completed At",
		"Refunded",
		"Net",
	}

	for colIdx, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1) // (col, row=1)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	})
	if err == nil {
		f.SetCellStyle(sheetName, "A1", "M1", headerStyle)
	}

	// Data rows start at row 2
	for i, txn := range txns {
		rowNum := i + 2

		rowStr := func(col int) string {
			cell, _ := excelize.CoordinatesToCellName(col, rowNum)
			return cell
		}

		refunded, err := s.refundedAgainst(ctx, txn)
		if err != nil {
			return nil, err
		}

		f.SetCellValue(sheetName, rowStr(1), txn.ID.String())
		f.SetCellValue(sheetName, rowStr(2), txn.OrderID.String())
		f.SetCellValue(sheetName, rowStr(3), txn.Provider)
		f.SetCellValue(sheetName, rowStr(4), txn.MerchantTransactionID)

		if txn.ProviderReferenceID != nil {
			f.SetCellValue(sheetName, rowStr(5), *txn.ProviderReferenceID)
		} else {
			f.SetCellValue(sheetName, rowStr(5), nil)
		}

		// Amount (decimal → float64)
		f.SetCellValue(sheetName, rowStr(6), txn.Amount.InexactFloat64())
		f.SetCellValue(sheetName, rowStr(7), txn.Currency)

		if txn.UTR != nil {
			f.SetCellValue(sheetName, rowStr(8), *txn.UTR)
		} else {
			f.SetCellValue(sheetName, rowStr(8), nil)
		}
		if txn.PayerVPA != nil {
			f.SetCellValue(sheetName, rowStr(9), *txn.PayerVPA)
		} else {
			f.SetCellValue(sheetName, rowStr(9), nil)
		}
		if txn.PaymentInstrument != nil {
			f.SetCellValue(sheetName, rowStr(10), *txn.PaymentInstrument)
		} else {
			f.SetCellValue(sheetName, rowStr(10), nil)
		}

		if txn.CompletedAt != nil {
			f.SetCellValue(sheetName, rowStr(11), txn.CompletedAt.Format(time.RFC3339))
		} else {
			f.SetCellValue(sheetName, rowStr(11), nil)
		}

		f.SetCellValue(sheetName, rowStr(12), refunded.InexactFloat64())
		f.SetCellValue(sheetName, rowStr(13), txn.Amount.Sub(refunded).InexactFloat64())
	}

	return f, nil
}

// refundedAgainst totals the processed refunds recorded against one
// transaction
func (s *reportService) refundedAgainst(ctx context.Context, txn *model.PaymentTransaction) (decimal.Decimal, error) {
	refunded := decimal.Zero
	refunds, err := s.refundRepo.ListByTransactionID(ctx, txn.ID)
	if err != nil {
		return refunded, fmt.Errorf("failed to list refunds for transaction %s: %w", txn.ID, err)
	}
	for _, r := range refunds {
		if r.IsProcessed() {
			refunded = refunded.Add(r.Amount)
		}
	}
	return refunded, nil
}
