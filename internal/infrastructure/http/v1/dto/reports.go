package dto

import (
	"time"
)

// Report responses marshal straight from the domain read models in
// internal/domain/reports; only the query binding shapes live here.

// MetalStockReportRequest represents request for the metal stock report.
type MetalStockReportRequest struct {
	AsOfDate    *time.Time `form:"asOfDate"`
	MetalTypes  []string   `form:"metalType"`
	Fineness    []int64    `form:"fineness"`
	ExcludeZero *bool      `form:"excludeZero"`
	Limit       int        `form:"limit"`
	Offset      int        `form:"offset"`
}

// MetalTurnoverRequest represents request for the metal turnover report.
type MetalTurnoverRequest struct {
	FromDate   string   `form:"fromDate" binding:"required"`
	ToDate     string   `form:"toDate" binding:"required"`
	MetalTypes []string `form:"metalType"`
	Fineness   []int64  `form:"fineness"`
}

// ItemStockReportRequest represents request for the item stock report.
type ItemStockReportRequest struct {
	ItemCodes    []string `form:"itemCode"`
	Categories   []string `form:"category"`
	MetalTypes   []string `form:"metalType"`
	LowStockOnly bool     `form:"lowStockOnly"`
	ExcludeZero  *bool    `form:"excludeZero"`
	Limit        int      `form:"limit"`
	Offset       int      `form:"offset"`
}

// SalesSummaryRequest represents request for the sales summary report.
type SalesSummaryRequest struct {
	FromDate    string   `form:"fromDate" binding:"required"`
	ToDate      string   `form:"toDate" binding:"required"`
	CustomerIDs []string `form:"customerId"`
	GroupByDay  bool     `form:"groupByDay"`
}

// DocumentJournalRequest represents request for the document journal.
type DocumentJournalRequest struct {
	FromDate        *string  `form:"fromDate"`
	ToDate          *string  `form:"toDate"`
	DocumentTypes   []string `form:"documentType"`
	Statuses        []string `form:"status"`
	NumberContains  string   `form:"number"`
	CounterpartyIDs []string `form:"counterpartyId"`
	SortBy          string   `form:"sortBy"`
	SortOrder       string   `form:"sortOrder"`
	Limit           int      `form:"limit"`
	Offset          int      `form:"offset"`
}
