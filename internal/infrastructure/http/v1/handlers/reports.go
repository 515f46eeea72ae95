package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aurum/internal/core/apperror"
	"aurum/internal/core/id"
	"aurum/internal/domain/reports"
	"aurum/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// MetalStock handles GET /reports/metal-stock
func (h *ReportsHandler) MetalStock(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.MetalStockReportRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter := reports.MetalStockReportFilter{
		AsOfDate:    req.AsOfDate,
		MetalTypes:  req.MetalTypes,
		Fineness:    req.Fineness,
		ExcludeZero: req.ExcludeZero == nil || *req.ExcludeZero,
		Limit:       req.Limit,
		Offset:      req.Offset,
	}

	report, err := h.service.GetMetalStock(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// MetalTurnover handles GET /reports/metal-turnover
func (h *ReportsHandler) MetalTurnover(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.MetalTurnoverRequest
	if !h.BindQuery(c, &req) {
		return
	}

	fromDate, err := time.Parse(time.RFC3339, req.FromDate)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid fromDate format, expected RFC3339"))
		return
	}

	toDate, err := time.Parse(time.RFC3339, req.ToDate)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid toDate format, expected RFC3339"))
		return
	}

	filter := reports.MetalTurnoverFilter{
		FromDate:   fromDate,
		ToDate:     toDate,
		MetalTypes: req.MetalTypes,
		Fineness:   req.Fineness,
	}

	report, err := h.service.GetMetalTurnover(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ItemStock handles GET /reports/item-stock
func (h *ReportsHandler) ItemStock(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ItemStockReportRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter := reports.ItemStockReportFilter{
		ItemCodes:    req.ItemCodes,
		Categories:   req.Categories,
		MetalTypes:   req.MetalTypes,
		LowStockOnly: req.LowStockOnly,
		ExcludeZero:  req.ExcludeZero == nil || *req.ExcludeZero,
		Limit:        req.Limit,
		Offset:       req.Offset,
	}

	report, err := h.service.GetItemStock(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// SalesSummary handles GET /reports/sales-summary
func (h *ReportsHandler) SalesSummary(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SalesSummaryRequest
	if !h.BindQuery(c, &req) {
		return
	}

	fromDate, err := time.Parse(time.RFC3339, req.FromDate)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid fromDate format, expected RFC3339"))
		return
	}

	toDate, err := time.Parse(time.RFC3339, req.ToDate)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid toDate format, expected RFC3339"))
		return
	}

	customerIDs, ok := h.parseIDList(c, req.CustomerIDs, "customerId")
	if !ok {
		return
	}

	filter := reports.SalesSummaryFilter{
		FromDate:    fromDate,
		ToDate:      toDate,
		CustomerIDs: customerIDs,
		GroupByDay:  req.GroupByDay,
	}

	report, err := h.service.GetSalesSummary(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// DocumentJournal handles GET /reports/document-journal
func (h *ReportsHandler) DocumentJournal(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.DocumentJournalRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter := reports.DocumentJournalFilter{
		DocumentTypes:  req.DocumentTypes,
		Statuses:       req.Statuses,
		NumberContains: req.NumberContains,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
		Limit:          req.Limit,
		Offset:         req.Offset,
	}

	if req.FromDate != nil {
		t, err := time.Parse(time.RFC3339, *req.FromDate)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid fromDate format, expected RFC3339"))
			return
		}
		filter.FromDate = &t
	}

	if req.ToDate != nil {
		t, err := time.Parse(time.RFC3339, *req.ToDate)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid toDate format, expected RFC3339"))
			return
		}
		filter.ToDate = &t
	}

	counterpartyIDs, ok := h.parseIDList(c, req.CounterpartyIDs, "counterpartyId")
	if !ok {
		return
	}
	filter.CounterpartyIDs = counterpartyIDs

	journal, err := h.service.GetDocumentJournal(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, journal)
}

func (h *ReportsHandler) parseIDList(c *gin.Context, raw []string, name string) ([]id.ID, bool) {
	if len(raw) == 0 {
		return nil, true
	}

	ids := make([]id.ID, len(raw))
	for i, s := range raw {
		parsed, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid "+name+" format"))
			return nil, false
		}
		ids[i] = parsed
	}

	return ids, true
}
