package reports

import (
	"context"
)

// Repository defines report data access interface.
type Repository interface {
	// Stock reports
	GetMetalStockReport(ctx context.Context, filter MetalStockReportFilter) (*MetalStockReport, error)
	GetMetalTurnoverReport(ctx context.Context, filter MetalTurnoverFilter) (*MetalTurnoverReport, error)
	GetItemStockReport(ctx context.Context, filter ItemStockReportFilter) (*ItemStockReport, error)

	// Sales
	GetSalesSummary(ctx context.Context, filter SalesSummaryFilter) (*SalesSummaryReport, error)

	// Document journal
	GetDocumentJournal(ctx context.Context, filter DocumentJournalFilter) (*DocumentJournal, error)
	GetDocumentTypeSummary(ctx context.Context, filter DocumentJournalFilter) ([]DocumentTypeSummary, error)
}
