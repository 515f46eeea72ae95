package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/domain/registers/itemstock"
	"aurum/internal/domain/registers/metalstock"
	"aurum/internal/infrastructure/http/v1/dto"
)

// StockHandler exposes the metal and item stock registers.
type StockHandler struct {
	*BaseHandler
	metal *metalstock.Service
	items *itemstock.Service
}

// NewStockHandler creates a new stock register handler.
func NewStockHandler(base *BaseHandler, metal *metalstock.Service, items *itemstock.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		metal:       metal,
		items:       items,
	}
}

// MetalBalances handles GET /registers/metal-stock/balances
func (h *StockHandler) MetalBalances(c *gin.Context) {
	ctx := c.Request.Context()

	filter := metalstock.AccountFilter{
		MetalType:   c.Query("metalType"),
		ExcludeZero: c.Query("excludeZero") != "false",
	}

	accounts, err := h.metal.ListAccounts(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.MetalAccountResponse, len(accounts))
	for i, acc := range accounts {
		items[i] = dto.FromMetalAccount(acc)
	}

	c.JSON(http.StatusOK, dto.MetalAccountListResponse{Items: items})
}

// MetalBalance handles GET /registers/metal-stock/balances/:metalType/:fineness
func (h *StockHandler) MetalBalance(c *gin.Context) {
	ctx := c.Request.Context()

	key, ok := h.metalKey(c)
	if !ok {
		return
	}

	account, err := h.metal.Snapshot(ctx, key)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromMetalAccount(account))
}

// MetalMovements handles GET /registers/metal-stock/movements/:metalType/:fineness
func (h *StockHandler) MetalMovements(c *gin.Context) {
	ctx := c.Request.Context()

	key, ok := h.metalKey(c)
	if !ok {
		return
	}

	filter := metalstock.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	recordType, ok := h.parseRecordType(c)
	if !ok {
		return
	}
	filter.RecordType = recordType

	var dateOK bool
	if filter.FromDate, dateOK = h.parseDateQuery(c, "fromDate"); !dateOK {
		return
	}
	if filter.ToDate, dateOK = h.parseDateQuery(c, "toDate"); !dateOK {
		return
	}

	movements, err := h.metal.History(ctx, key, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.MetalMovementResponse, len(movements))
	for i, m := range movements {
		items[i] = dto.FromMetalMovement(m)
	}

	c.JSON(http.StatusOK, dto.MetalMovementListResponse{
		Items:      items,
		TotalCount: len(items),
	})
}

// MetalMovementsBySource handles GET /registers/metal-stock/movements/by-source
func (h *StockHandler) MetalMovementsBySource(c *gin.Context) {
	ctx := c.Request.Context()

	sourceType := c.Query("sourceType")
	if sourceType == "" {
		h.Error(c, apperror.NewValidation("sourceType parameter is required"))
		return
	}

	sourceID, err := id.Parse(c.Query("sourceId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid sourceId format"))
		return
	}

	movements, err := h.metal.MovementsBySource(ctx, entity.SourceRef{Type: sourceType, ID: sourceID})
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.MetalMovementResponse, len(movements))
	for i, m := range movements {
		items[i] = dto.FromMetalMovement(m)
	}

	c.JSON(http.StatusOK, dto.MetalMovementListResponse{
		Items:      items,
		TotalCount: len(items),
	})
}

// ItemBalances handles GET /registers/item-stock/balances
func (h *StockHandler) ItemBalances(c *gin.Context) {
	ctx := c.Request.Context()

	filter := itemstock.AccountFilter{
		ItemCodes:   c.QueryArray("itemCode"),
		ExcludeZero: c.Query("excludeZero") != "false",
	}

	accounts, err := h.items.ListAccounts(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.ItemAccountResponse, len(accounts))
	for i, acc := range accounts {
		items[i] = dto.FromItemAccount(acc)
	}

	c.JSON(http.StatusOK, dto.ItemAccountListResponse{Items: items})
}

// ItemBalance handles GET /registers/item-stock/balances/:itemCode
func (h *StockHandler) ItemBalance(c *gin.Context) {
	ctx := c.Request.Context()

	itemCode := c.Param("itemCode")
	if itemCode == "" {
		h.Error(c, apperror.NewValidation("item code is required"))
		return
	}

	account, err := h.items.Snapshot(ctx, itemCode)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromItemAccount(account))
}

// ItemMovements handles GET /registers/item-stock/movements/:itemCode
func (h *StockHandler) ItemMovements(c *gin.Context) {
	ctx := c.Request.Context()

	itemCode := c.Param("itemCode")
	if itemCode == "" {
		h.Error(c, apperror.NewValidation("item code is required"))
		return
	}

	filter := itemstock.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	recordType, ok := h.parseRecordType(c)
	if !ok {
		return
	}
	filter.RecordType = recordType

	var dateOK bool
	if filter.FromDate, dateOK = h.parseDateQuery(c, "fromDate"); !dateOK {
		return
	}
	if filter.ToDate, dateOK = h.parseDateQuery(c, "toDate"); !dateOK {
		return
	}

	movements, err := h.items.History(ctx, itemCode, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.ItemMovementResponse, len(movements))
	for i, m := range movements {
		items[i] = dto.FromItemMovement(m)
	}

	c.JSON(http.StatusOK, dto.ItemMovementListResponse{
		Items:      items,
		TotalCount: len(items),
	})
}

func (h *StockHandler) metalKey(c *gin.Context) (metalstock.Key, bool) {
	metalType := c.Param("metalType")
	if metalType == "" {
		h.Error(c, apperror.NewValidation("metal type is required"))
		return metalstock.Key{}, false
	}

	fineness, err := strconv.ParseInt(c.Param("fineness"), 10, 64)
	if err != nil || fineness <= 0 {
		h.Error(c, apperror.NewValidation("invalid fineness value"))
		return metalstock.Key{}, false
	}

	return metalstock.Key{MetalType: metalType, Fineness: fineness}, true
}

func (h *StockHandler) parseRecordType(c *gin.Context) (*entity.RecordType, bool) {
	raw := c.Query("recordType")
	if raw == "" {
		return nil, true
	}

	rt := entity.RecordType(raw)
	switch rt {
	case entity.RecordTypeCredit, entity.RecordTypeDebit, entity.RecordTypeReverse:
		return &rt, true
	default:
		h.Error(c, apperror.NewValidation("invalid recordType value"))
		return nil, false
	}
}

func (h *StockHandler) parseDateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+name+" format, expected RFC3339"))
		return nil, false
	}

	return &t, true
}
