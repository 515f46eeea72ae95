package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/domain/documents/purchase"
	"aurum/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler handles HTTP requests for PurchaseInvoice documents.
type PurchaseHandler struct {
	*BaseHandler
	service *purchase.Service
}

// NewPurchaseHandler creates a new purchase invoice handler.
func NewPurchaseHandler(base *BaseHandler, service *purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /documents/purchase-invoices
func (h *PurchaseHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreatePurchaseInvoiceRequest
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

	response := dto.FromPurchaseInvoice(doc)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// Get handles GET /documents/purchase-invoices/:id
func (h *PurchaseHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	invoiceID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.GetByID(ctx, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromPurchaseInvoice(doc))
}

// List handles GET /documents/purchase-invoices
func (h *PurchaseHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := purchase.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if supplierID := c.Query("supplierId"); supplierID != "" {
		parsed, err := id.Parse(supplierID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid supplierId format"))
			return
		}
		filter.SupplierID = &parsed
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

	items := make([]*dto.PurchaseInvoiceResponse, len(docs))
	for i := range docs {
		items[i] = dto.FromPurchaseInvoice(&docs[i])
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: int64(len(items)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// Update handles PUT /documents/purchase-invoices/:id
func (h *PurchaseHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	invoiceID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdatePurchaseInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.GetByID(ctx, invoiceID)
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

	response := dto.FromPurchaseInvoice(doc)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// Delete handles DELETE /documents/purchase-invoices/:id
func (h *PurchaseHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	invoiceID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, invoiceID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Confirm handles POST /documents/purchase-invoices/:id/confirm
func (h *PurchaseHandler) Confirm(c *gin.Context) {
	h.transition(c, h.service.Confirm)
}

// Cancel handles POST /documents/purchase-invoices/:id/cancel
func (h *PurchaseHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *PurchaseHandler) transition(c *gin.Context, op func(ctx context.Context, invoiceID id.ID) error) {
	ctx := c.Request.Context()

	invoiceID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := op(ctx, invoiceID); err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.GetByID(ctx, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromPurchaseInvoice(doc)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}
