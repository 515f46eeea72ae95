package dto

import (
	"github.com/shopspring/decimal"

	"aurum/internal/core/types"
	"aurum/internal/domain/catalogs/item"
	"aurum/internal/domain/purity"
)

// --- Request DTOs ---

// CreateItemRequest represents a request to create a catalog item.
// PurityValue accepts karat, percentage or fineness; the unit is
// detected from the numeric range.
type CreateItemRequest struct {
	Code         string          `json:"code,omitempty"`
	Name         string          `json:"name" binding:"required"`
	ParentID     string          `json:"parentId,omitempty"`
	Category     string          `json:"category" binding:"required"`
	MetalType    string          `json:"metalType" binding:"required"`
	PurityValue  decimal.Decimal `json:"purityValue" binding:"required"`
	GrossWeight  types.Weight    `json:"grossWeight,omitempty"`
	MakingCharge types.Money     `json:"makingCharge,omitempty"`
	HSNCode      *string         `json:"hsnCode,omitempty"`
	Barcode      *string         `json:"barcode,omitempty"`
	MinStock     int64           `json:"minStock,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateItemRequest) ToEntity() (*item.Item, error) {
	it, err := item.NewItem(r.Code, r.Name, item.Category(r.Category), r.MetalType, r.PurityValue)
	if err != nil {
		return nil, err
	}

	it.SetParent(r.ParentID)
	it.GrossWeight = r.GrossWeight
	it.MakingCharge = r.MakingCharge
	it.HSNCode = r.HSNCode
	it.Barcode = r.Barcode
	it.MinStock = r.MinStock

	return it, nil
}

// UpdateItemRequest represents a request to update a catalog item.
// Only provided fields are changed; Version guards against lost updates.
type UpdateItemRequest struct {
	Name         *string          `json:"name,omitempty"`
	ParentID     *string          `json:"parentId,omitempty"`
	Category     *string          `json:"category,omitempty"`
	MetalType    *string          `json:"metalType,omitempty"`
	PurityValue  *decimal.Decimal `json:"purityValue,omitempty"`
	GrossWeight  *types.Weight    `json:"grossWeight,omitempty"`
	MakingCharge *types.Money     `json:"makingCharge,omitempty"`
	HSNCode      *string          `json:"hsnCode,omitempty"`
	Barcode      *string          `json:"barcode,omitempty"`
	MinStock     *int64           `json:"minStock,omitempty"`
	Version      int              `json:"version" binding:"required"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateItemRequest) ApplyTo(it *item.Item) error {
	if r.Name != nil {
		it.Name = *r.Name
	}
	if r.ParentID != nil {
		it.SetParent(*r.ParentID)
	}
	if r.Category != nil {
		it.Category = item.Category(*r.Category)
	}
	if r.MetalType != nil {
		it.MetalType = *r.MetalType
	}
	if r.PurityValue != nil {
		p, err := purity.FromValue(*r.PurityValue)
		if err != nil {
			return err
		}
		it.Fineness = p.Fineness()
	}
	if r.GrossWeight != nil {
		it.GrossWeight = *r.GrossWeight
	}
	if r.MakingCharge != nil {
		it.MakingCharge = *r.MakingCharge
	}
	if r.HSNCode != nil {
		it.HSNCode = r.HSNCode
	}
	if r.Barcode != nil {
		it.Barcode = r.Barcode
	}
	if r.MinStock != nil {
		it.MinStock = *r.MinStock
	}
	it.Version = r.Version
	return nil
}

// --- Response DTOs ---

// ItemResponse represents a catalog item in API responses.
type ItemResponse struct {
	CatalogResponse
	Category     string       `json:"category"`
	MetalType    string       `json:"metalType"`
	Fineness     int64        `json:"fineness"`
	GrossWeight  types.Weight `json:"grossWeight"`
	MakingCharge types.Money  `json:"makingCharge"`
	HSNCode      *string      `json:"hsnCode,omitempty"`
	Barcode      *string      `json:"barcode,omitempty"`
	MinStock     int64        `json:"minStock"`
}

// FromItem converts domain entity to response DTO.
func FromItem(it *item.Item) *ItemResponse {
	return &ItemResponse{
		CatalogResponse: FromCatalog(it.Catalog),
		Category:        string(it.Category),
		MetalType:       it.MetalType,
		Fineness:        it.Fineness,
		GrossWeight:     it.GrossWeight,
		MakingCharge:    it.MakingCharge,
		HSNCode:         it.HSNCode,
		Barcode:         it.Barcode,
		MinStock:        it.MinStock,
	}
}
