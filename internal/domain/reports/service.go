package reports

import (
	"context"
	"fmt"
	"time"
)

// Service provides report generation operations.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetMetalStock generates the metal stock balance report.
func (s *Service) GetMetalStock(ctx context.Context, filter MetalStockReportFilter) (*MetalStockReport, error) {
	// Default to current time if not specified
	if filter.AsOfDate == nil {
		now := time.Now()
		filter.AsOfDate = &now
	}

	// Set default pagination
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	report, err := s.repo.GetMetalStockReport(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get metal stock report: %w", err)
	}

	return report, nil
}

// GetMetalTurnover generates the metal turnover report for a period.
func (s *Service) GetMetalTurnover(ctx context.Context, filter MetalTurnoverFilter) (*MetalTurnoverReport, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, fmt.Errorf("fromDate and toDate are required")
	}

	if filter.FromDate.After(filter.ToDate) {
		return nil, fmt.Errorf("fromDate must be before toDate")
	}

	report, err := s.repo.GetMetalTurnoverReport(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get metal turnover report: %w", err)
	}

	return report, nil
}

// GetItemStock generates the item stock report with low-stock flags.
func (s *Service) GetItemStock(ctx context.Context, filter ItemStockReportFilter) (*ItemStockReport, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	report, err := s.repo.GetItemStockReport(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get item stock report: %w", err)
	}

	return report, nil
}

// GetSalesSummary generates the sales summary for a period.
func (s *Service) GetSalesSummary(ctx context.Context, filter SalesSummaryFilter) (*SalesSummaryReport, error) {
	// Validate required dates
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, fmt.Errorf("fromDate and toDate are required")
	}

	if filter.FromDate.After(filter.ToDate) {
		return nil, fmt.Errorf("fromDate must be before toDate")
	}

	report, err := s.repo.GetSalesSummary(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get sales summary: %w", err)
	}

	return report, nil
}

// GetDocumentJournal returns the document journal.
func (s *Service) GetDocumentJournal(ctx context.Context, filter DocumentJournalFilter) (*DocumentJournal, error) {
	// Set default pagination
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}

	// Default sort
	if filter.SortBy == "" {
		filter.SortBy = "date"
	}
	if filter.SortOrder == "" {
		filter.SortOrder = "desc"
	}

	journal, err := s.repo.GetDocumentJournal(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get document journal: %w", err)
	}

	// Get summary on the first page only
	if filter.Offset == 0 {
		summary, err := s.repo.GetDocumentTypeSummary(ctx, filter)
		if err == nil {
			journal.Summary = summary
		}
	}

	return journal, nil
}
