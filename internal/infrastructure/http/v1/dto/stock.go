package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"aurum/internal/core/entity"
	"aurum/internal/core/types"
	"aurum/internal/domain/purity"
)

// --- Metal Stock Register ---

// MetalAccountResponse represents a metal ledger balance.
type MetalAccountResponse struct {
	MetalType       string       `json:"metalType"`
	Fineness        int64        `json:"fineness"`
	TotalWeight     types.Weight `json:"totalWeight"`
	AvailableWeight types.Weight `json:"availableWeight"`
	UsedWeight      types.Weight `json:"usedWeight"`
	// PureWeight is the fine-metal content of the total weight and
	// PurityPercent the fineness expressed as a percentage.
	PureWeight    types.Weight    `json:"pureWeight"`
	PurityPercent decimal.Decimal `json:"purityPercent"`
	Version       int             `json:"version"`
	LastUpdated   time.Time       `json:"lastUpdated"`
}

// FromMetalAccount converts a ledger account to response DTO.
func FromMetalAccount(a entity.MetalStockAccount) MetalAccountResponse {
	resp := MetalAccountResponse{
		MetalType:       a.MetalType,
		Fineness:        a.Fineness,
		TotalWeight:     a.TotalWeight,
		AvailableWeight: a.AvailableWeight,
		UsedWeight:      a.UsedWeight,
		Version:         a.Version,
		LastUpdated:     a.LastUpdated,
	}
	if p, err := purity.FromFineness(decimal.NewFromInt(a.Fineness)); err == nil {
		resp.PureWeight = p.PureWeight(a.TotalWeight)
		resp.PurityPercent = p.Percentage()
	}
	return resp
}

// MetalMovementResponse represents one metal ledger movement.
// The source reference is flattened for tabular display.
type MetalMovementResponse struct {
	LineID     string       `json:"lineId"`
	SourceType string       `json:"sourceType"`
	SourceID   string       `json:"sourceId"`
	Period     time.Time    `json:"period"`
	RecordType string       `json:"recordType"`
	MetalType  string       `json:"metalType"`
	Fineness   int64        `json:"fineness"`
	Weight     types.Weight `json:"weight"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// FromMetalMovement converts a movement to response DTO.
func FromMetalMovement(m entity.MetalMovement) MetalMovementResponse {
	return MetalMovementResponse{
		LineID:     m.LineID.String(),
		SourceType: m.Source.Type,
		SourceID:   m.Source.ID.String(),
		Period:     m.Period,
		RecordType: string(m.RecordType),
		MetalType:  m.MetalType,
		Fineness:   m.Fineness,
		Weight:     m.Weight,
		CreatedAt:  m.CreatedAt,
	}
}

// MetalAccountListResponse wraps a list of metal balances.
type MetalAccountListResponse struct {
	Items []MetalAccountResponse `json:"items"`
}

// MetalMovementListResponse wraps a list of metal movements.
type MetalMovementListResponse struct {
	Items      []MetalMovementResponse `json:"items"`
	TotalCount int                     `json:"totalCount"`
}

// --- Item Stock Register ---

// ItemAccountResponse represents an item register balance.
type ItemAccountResponse struct {
	ItemCode     string    `json:"itemCode"`
	TotalQty     int64     `json:"totalQty"`
	AvailableQty int64     `json:"availableQty"`
	SoldQty      int64     `json:"soldQty"`
	Version      int       `json:"version"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// FromItemAccount converts a register account to response DTO.
func FromItemAccount(a entity.ItemStockAccount) ItemAccountResponse {
	return ItemAccountResponse{
		ItemCode:     a.ItemCode,
		TotalQty:     a.TotalQty,
		AvailableQty: a.AvailableQty,
		SoldQty:      a.SoldQty,
		Version:      a.Version,
		LastUpdated:  a.LastUpdated,
	}
}

// ItemMovementResponse represents one item register movement.
type ItemMovementResponse struct {
	LineID     string    `json:"lineId"`
	SourceType string    `json:"sourceType"`
	SourceID   string    `json:"sourceId"`
	Period     time.Time `json:"period"`
	RecordType string    `json:"recordType"`
	ItemCode   string    `json:"itemCode"`
	Quantity   int64     `json:"quantity"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FromItemMovement converts a movement to response DTO.
func FromItemMovement(m entity.ItemMovement) ItemMovementResponse {
	return ItemMovementResponse{
		LineID:     m.LineID.String(),
		SourceType: m.Source.Type,
		SourceID:   m.Source.ID.String(),
		Period:     m.Period,
		RecordType: string(m.RecordType),
		ItemCode:   m.ItemCode,
		Quantity:   m.Quantity,
		CreatedAt:  m.CreatedAt,
	}
}

// ItemAccountListResponse wraps a list of item balances.
type ItemAccountListResponse struct {
	Items []ItemAccountResponse `json:"items"`
}

// ItemMovementListResponse wraps a list of item movements.
type ItemMovementListResponse struct {
	Items      []ItemMovementResponse `json:"items"`
	TotalCount int                    `json:"totalCount"`
}
