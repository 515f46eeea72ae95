package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aurum/internal/core/apperror"
	"aurum/internal/domain/catalogs/item"
	"aurum/internal/infrastructure/http/v1/dto"
)

// ItemHandler handles HTTP requests for the Item catalog.
type ItemHandler struct {
	*CatalogHandler[*item.Item, dto.CreateItemRequest, dto.UpdateItemRequest]
	service *item.Service
}

// NewItemHandler creates a new item handler.
func NewItemHandler(base *BaseHandler, service *item.Service) *ItemHandler {
	cfg := CatalogHandlerConfig[*item.Item, dto.CreateItemRequest, dto.UpdateItemRequest]{
		Service:    service.CatalogService,
		EntityName: "item",
		MapCreateDTO: func(req dto.CreateItemRequest) (*item.Item, error) {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateItemRequest, existing *item.Item) (*item.Item, error) {
			if err := req.ApplyTo(existing); err != nil {
				return nil, err
			}
			return existing, nil
		},
		MapToDTO: func(it *item.Item) any {
			return dto.FromItem(it)
		},
	}

	return &ItemHandler{
		CatalogHandler: NewCatalogHandler(base, cfg),
		service:        service,
	}
}

// FindByBarcode handles GET /catalogs/items/by-barcode/:barcode
func (h *ItemHandler) FindByBarcode(c *gin.Context) {
	ctx := c.Request.Context()

	barcode := c.Param("barcode")
	if barcode == "" {
		h.Error(c, apperror.NewValidation("barcode is required"))
		return
	}

	it, err := h.service.FindByBarcode(ctx, barcode)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromItem(it))
}
