package service

import (
	"context"
	"time"

	"github.com/xuri/excelize/v2"
)

type ReportService interface {
	// BuildSettlementReport builds the settlement workbook for payments
	// completed in [from, to], both dates inclusive. Returns the file
	// and how many transactions it covers.
	BuildSettlementReport(ctx context.Context, from, to time.Time) (*excelize.File, int, error)
}
