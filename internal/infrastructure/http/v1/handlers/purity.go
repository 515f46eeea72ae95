package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aurum/internal/domain/purity"
	"aurum/internal/infrastructure/http/v1/dto"
)

// PurityHandler handles purity conversion endpoints.
type PurityHandler struct {
	*BaseHandler
}

// NewPurityHandler creates a new purity handler.
func NewPurityHandler(base *BaseHandler) *PurityHandler {
	return &PurityHandler{BaseHandler: base}
}

// Convert handles GET /purity/convert
func (h *PurityHandler) Convert(c *gin.Context) {
	var req dto.PurityConvertRequest
	if !h.BindQuery(c, &req) {
		return
	}

	p, err := purity.FromValue(req.Value)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromPurity(p, req.Weight))
}

// RegisterRoutes registers purity routes.
func (h *PurityHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/convert", h.Convert)
}
