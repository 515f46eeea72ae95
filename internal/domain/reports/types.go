// Package reports provides read-only report generation over the stock
// registers and documents.
package reports

import (
	"time"

	"aurum/internal/core/id"
	"aurum/internal/core/types"
)

// --- Metal Stock Report ---

// MetalStockReportFilter defines filter for the metal stock report.
type MetalStockReportFilter struct {
	// AsOfDate - report date (defaults to now)
	AsOfDate *time.Time

	// Filters
	MetalTypes []string
	Fineness   []int64

	// Exclude zero balances
	ExcludeZero bool

	// Pagination
	Limit  int
	Offset int
}

// MetalStockReportItem is one row of the metal stock report, keyed by
// metal type and fineness.
type MetalStockReportItem struct {
	MetalType       string       `json:"metalType"`
	Fineness        int64        `json:"fineness"`
	TotalWeight     types.Weight `json:"totalWeight"`
	AvailableWeight types.Weight `json:"availableWeight"`
	UsedWeight      types.Weight `json:"usedWeight"`
	// PureWeight is the fine-metal content of the total weight.
	PureWeight types.Weight `json:"pureWeight"`
}

// MetalStockReport is the full metal stock report.
type MetalStockReport struct {
	AsOfDate   time.Time              `json:"asOfDate"`
	Items      []MetalStockReportItem `json:"items"`
	TotalItems int                    `json:"totalItems"`

	// Summary: pure weight across all metals of the same type
	TotalPureWeight map[string]types.Weight `json:"totalPureWeight"`
}

// --- Metal Turnover Report ---

// MetalTurnoverFilter defines filter for the metal turnover report.
type MetalTurnoverFilter struct {
	// Period (required)
	FromDate time.Time
	ToDate   time.Time

	// Filters
	MetalTypes []string
	Fineness   []int64
}

// MetalTurnoverRow is one row of the metal turnover report. All columns
// are available-weight deltas: receipts add, expenses subtract and
// reversals restore, so closing = opening + receipt - expense + reversal.
type MetalTurnoverRow struct {
	MetalType string       `json:"metalType"`
	Fineness  int64        `json:"fineness"`
	Opening   types.Weight `json:"opening"`
	Receipt   types.Weight `json:"receipt"`
	Expense   types.Weight `json:"expense"`
	Reversal  types.Weight `json:"reversal"`
	Closing   types.Weight `json:"closing"`
}

// MetalTurnoverReport is the full metal turnover report.
type MetalTurnoverReport struct {
	FromDate   time.Time          `json:"fromDate"`
	ToDate     time.Time          `json:"toDate"`
	Rows       []MetalTurnoverRow `json:"rows"`
	TotalItems int                `json:"totalItems"`
}

// --- Item Stock Report ---

// ItemStockReportFilter defines filter for the item stock report.
type ItemStockReportFilter struct {
	// Filters
	ItemCodes  []string
	Categories []string
	MetalTypes []string

	// LowStockOnly keeps only rows where available < item min stock.
	LowStockOnly bool

	// Exclude zero balances
	ExcludeZero bool

	// Pagination
	Limit  int
	Offset int
}

// ItemStockReportItem is one row of the item stock report.
type ItemStockReportItem struct {
	ItemCode     string `json:"itemCode"`
	ItemName     string `json:"itemName"`
	Category     string `json:"category"`
	MetalType    string `json:"metalType"`
	Fineness     int64  `json:"fineness"`
	TotalQty     int64  `json:"totalQty"`
	AvailableQty int64  `json:"availableQty"`
	SoldQty      int64  `json:"soldQty"`
	MinStock     int64  `json:"minStock"`
	LowStock     bool   `json:"lowStock"`
}

// ItemStockReport is the full item stock report.
type ItemStockReport struct {
	Items      []ItemStockReportItem `json:"items"`
	TotalItems int                   `json:"totalItems"`

	// Summary
	LowStockCount int `json:"lowStockCount"`
}

// --- Sales Summary Report ---

// SalesSummaryFilter defines filter for the sales summary report.
type SalesSummaryFilter struct {
	// Period (required)
	FromDate time.Time
	ToDate   time.Time

	// Filters
	CustomerIDs []id.ID

	// GroupByDay emits one row per calendar day instead of one total row.
	GroupByDay bool
}

// SalesSummaryRow is one row of the sales summary.
type SalesSummaryRow struct {
	Date           *time.Time  `json:"date,omitempty"`
	BillCount      int         `json:"billCount"`
	Subtotal       types.Money `json:"subtotal"`
	TotalTax       types.Money `json:"totalTax"`
	ExchangeAmount types.Money `json:"exchangeAmount"`
	GrandTotal     types.Money `json:"grandTotal"`
	PaidAmount     types.Money `json:"paidAmount"`
	PendingAmount  types.Money `json:"pendingAmount"`
}

// SalesSummaryReport is the full sales summary.
type SalesSummaryReport struct {
	FromDate time.Time         `json:"fromDate"`
	ToDate   time.Time         `json:"toDate"`
	Rows     []SalesSummaryRow `json:"rows"`

	// Totals over the whole period regardless of grouping
	Totals SalesSummaryRow `json:"totals"`
}

// --- Document Journal ---

// DocumentJournalFilter defines filter for the document journal.
type DocumentJournalFilter struct {
	// Period
	FromDate *time.Time
	ToDate   *time.Time

	// Document types filter: "bill", "purchase_invoice"
	DocumentTypes []string

	// Status filter
	Statuses []string

	// Search by number
	NumberContains string

	// Filters by references
	CounterpartyIDs []id.ID

	// Sorting
	SortBy    string // "date", "number", "type", "amount"
	SortOrder string // "asc", "desc"

	// Pagination
	Limit  int
	Offset int
}

// DocumentJournalItem represents a document in the journal.
type DocumentJournalItem struct {
	ID           id.ID     `json:"id"`
	DocumentType string    `json:"documentType"`
	Number       string    `json:"number"`
	Date         time.Time `json:"date"`
	Status       string    `json:"status"`

	// Counterparty info
	CounterpartyID   id.ID  `json:"counterpartyId"`
	CounterpartyName string `json:"counterpartyName,omitempty"`

	// Amounts
	GrandTotal types.Money `json:"grandTotal"`

	ReconcileState string    `json:"reconcileState"`
	DeletionMark   bool      `json:"deletionMark"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// DocumentJournal represents the document journal result.
type DocumentJournal struct {
	Items      []DocumentJournalItem `json:"items"`
	TotalCount int                   `json:"totalCount"`
	Limit      int                   `json:"limit"`
	Offset     int                   `json:"offset"`

	// Summary by document type
	Summary []DocumentTypeSummary `json:"summary,omitempty"`
}

// DocumentTypeSummary provides count and totals by document type.
type DocumentTypeSummary struct {
	DocumentType   string      `json:"documentType"`
	Count          int         `json:"count"`
	ConfirmedCount int         `json:"confirmedCount"`
	TotalAmount    types.Money `json:"totalAmount"`
}
