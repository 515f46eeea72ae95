package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aurum/internal/core/apperror"
	"aurum/internal/domain/catalogs/counterparty"
	"aurum/internal/infrastructure/http/v1/dto"
)

// CounterpartyHandler handles HTTP requests for the Counterparty catalog.
type CounterpartyHandler struct {
	*CatalogHandler[*counterparty.Counterparty, dto.CreateCounterpartyRequest, dto.UpdateCounterpartyRequest]
	service *counterparty.Service
}

// NewCounterpartyHandler creates a new counterparty handler.
func NewCounterpartyHandler(base *BaseHandler, service *counterparty.Service) *CounterpartyHandler {
	cfg := CatalogHandlerConfig[*counterparty.Counterparty, dto.CreateCounterpartyRequest, dto.UpdateCounterpartyRequest]{
		Service:    service.CatalogService,
		EntityName: "counterparty",
		MapCreateDTO: func(req dto.CreateCounterpartyRequest) (*counterparty.Counterparty, error) {
			return req.ToEntity(), nil
		},
		MapUpdateDTO: func(req dto.UpdateCounterpartyRequest, existing *counterparty.Counterparty) (*counterparty.Counterparty, error) {
			req.ApplyTo(existing)
			return existing, nil
		},
		MapToDTO: func(cp *counterparty.Counterparty) any {
			return dto.FromCounterparty(cp)
		},
	}

	return &CounterpartyHandler{
		CatalogHandler: NewCatalogHandler(base, cfg),
		service:        service,
	}
}

// FindByPhone handles GET /catalogs/counterparties/by-phone/:phone
func (h *CounterpartyHandler) FindByPhone(c *gin.Context) {
	ctx := c.Request.Context()

	phone := c.Param("phone")
	if phone == "" {
		h.Error(c, apperror.NewValidation("phone is required"))
		return
	}

	cp, err := h.service.FindByPhone(ctx, phone)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromCounterparty(cp))
}
