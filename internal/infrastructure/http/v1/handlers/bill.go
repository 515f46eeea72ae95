package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/domain/documents/bill"
	"aurum/internal/infrastructure/http/v1/dto"
)

// BillHandler handles HTTP requests for Bill documents.
type BillHandler struct {
	*BaseHandler
	service *bill.Service
}

// NewBillHandler creates a new bill handler.
func NewBillHandler(base *BaseHandler, service *bill.Service) *BillHandler {
	return &BillHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /documents/bills
func (h *BillHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateBillRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if userID := h.GetUserID(c); userID != "" {
		doc.CreatedBy = userID
		doc.UpdatedBy = userID
	}

	if err := h.service.Create(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromBill(doc)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// Get handles GET /documents/bills/:id
func (h *BillHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	billID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.GetByID(ctx, billID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromBill(doc))
}

// List handles GET /documents/bills - list headers with filtering.
func (h *BillHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := bill.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if customerID := c.Query("customerId"); customerID != "" {
		parsed, err := id.Parse(customerID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid customerId format"))
			return
		}
		filter.CustomerID = &parsed
	}

	if status := c.Query("status"); status != "" {
		val := entity.DocumentStatus(status)
		filter.Status = &val
	}

	if state := c.Query("reconcileState"); state != "" {
		val := entity.ReconcileState(state)
		filter.ReconcileState = &val
	}

	if fromStr := c.Query("fromDate"); fromStr != "" {
		if parsed, err := time.Parse(time.RFC3339, fromStr); err == nil {
			filter.FromDate = &parsed
		}
	}

	if toStr := c.Query("toDate"); toStr != "" {
		if parsed, err := time.Parse(time.RFC3339, toStr); err == nil {
			filter.ToDate = &parsed
		}
	}

	docs, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.BillResponse, len(docs))
	for i := range docs {
		items[i] = dto.FromBill(&docs[i])
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: int64(len(items)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// Update handles PUT /documents/bills/:id
func (h *BillHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	billID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateBillRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.GetByID(ctx, billID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := req.ApplyTo(doc); err != nil {
		h.Error(c, err)
		return
	}

	if userID := h.GetUserID(c); userID != "" {
		doc.UpdatedBy = userID
	}

	if err := h.service.Update(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromBill(doc)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// Delete handles DELETE /documents/bills/:id
func (h *BillHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	billID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, billID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Confirm handles POST /documents/bills/:id/confirm
func (h *BillHandler) Confirm(c *gin.Context) {
	h.transition(c, h.service.Confirm)
}

// Cancel handles POST /documents/bills/:id/cancel
func (h *BillHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

// AddPayment handles POST /documents/bills/:id/payments
func (h *BillHandler) AddPayment(c *gin.Context) {
	ctx := c.Request.Context()

	billID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.ApplyPayment(ctx, billID, req.Amount, req.Method, req.Reference)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromBill(doc)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// GetPayments handles GET /documents/bills/:id/payments
func (h *BillHandler) GetPayments(c *gin.Context) {
	ctx := c.Request.Context()

	billID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.GetByID(ctx, billID)
	if err != nil {
		h.Error(c, err)
		return
	}

	payments := make([]dto.PaymentResponse, len(doc.Payments))
	for i, p := range doc.Payments {
		payments[i] = dto.FromPayment(p)
	}

	c.JSON(http.StatusOK, gin.H{"items": payments})
}

// transition runs a confirm/cancel style operation and returns the
// updated document.
func (h *BillHandler) transition(c *gin.Context, op func(ctx context.Context, billID id.ID) error) {
	ctx := c.Request.Context()

	billID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := op(ctx, billID); err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.GetByID(ctx, billID)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromBill(doc)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}
