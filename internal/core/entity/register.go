package entity

import (
	"fmt"
	"time"

	"aurum/internal/core/id"
	"aurum/internal/core/types"
)

// RecordType defines movement direction for accumulation registers.
type RecordType string

const (
	// RecordTypeCredit increases available balance (receipt into stock)
	RecordTypeCredit RecordType = "credit"
	// RecordTypeDebit moves weight from available to used/sold
	RecordTypeDebit RecordType = "debit"
	// RecordTypeReverse undoes a prior debit (cancelled sale)
	RecordTypeReverse RecordType = "reverse"
)

// SourceRef attributes a register movement to the business event that
// caused it, e.g. BILL#0193... Every mutating ledger call carries one;
// the movement log is the audit trail and the per-step idempotence guard.
type SourceRef struct {
	Type string `db:"source_type" json:"sourceType"`
	ID   id.ID  `db:"source_id" json:"sourceId"`
}

// Source reference types.
const (
	SourceBill     = "BILL"
	SourcePurchase = "PURCHASE"
	SourceCancel   = "CANCEL"
	SourceManual   = "MANUAL"
)

// String renders the canonical TYPE#id form used in logs and error details.
func (s SourceRef) String() string {
	return fmt.Sprintf("%s#%s", s.Type, s.ID)
}

// MovementBase contains common fields for all register movements.
// Movements are immutable - they are never updated, only appended.
type MovementBase struct {
	// LineID is unique identifier for this movement line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// Source is the business event that recorded this movement
	Source SourceRef `json:"source"`

	// Period is the business date for the movement (for period-based queries)
	Period time.Time `db:"period" json:"period"`

	// RecordType: credit, debit or reverse
	RecordType RecordType `db:"record_type" json:"recordType"`

	// CreatedAt is when the movement was recorded
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewMovementBase creates a new movement base with generated LineID.
func NewMovementBase(source SourceRef, period time.Time, recordType RecordType) MovementBase {
	return MovementBase{
		LineID:     id.New(),
		Source:     source,
		Period:     period,
		RecordType: recordType,
		CreatedAt:  time.Now().UTC(),
	}
}

// MetalMovement represents a movement in the metal stock register.
// Tracks weight changes per (metal type, purity) ledger key.
type MetalMovement struct {
	MovementBase

	// Dimensions
	MetalType string `db:"metal_type" json:"metalType"`
	Fineness  int64  `db:"fineness" json:"fineness"`

	// Resources
	Weight types.Weight `db:"weight" json:"weight"`
}

// NewMetalMovement creates a new metal stock movement.
func NewMetalMovement(
	source SourceRef,
	period time.Time,
	recordType RecordType,
	metalType string,
	fineness int64,
	weight types.Weight,
) MetalMovement {
	return MetalMovement{
		MovementBase: NewMovementBase(source, period, recordType),
		MetalType:    metalType,
		Fineness:     fineness,
		Weight:       weight,
	}
}

// MetalStockAccount is the running balance for one (metal type, purity) key.
// Created on first credit, mutated only through the ledger service,
// never deleted (zero-balance accounts persist for audit).
type MetalStockAccount struct {
	// Dimensions
	MetalType string `db:"metal_type" json:"metalType"`
	Fineness  int64  `db:"fineness" json:"fineness"`

	// Balances; invariant: TotalWeight == AvailableWeight + UsedWeight, all >= 0
	TotalWeight     types.Weight `db:"total_weight" json:"totalWeight"`
	AvailableWeight types.Weight `db:"available_weight" json:"availableWeight"`
	UsedWeight      types.Weight `db:"used_weight" json:"usedWeight"`

	// Metadata
	Version     int       `db:"version" json:"version"`
	LastUpdated time.Time `db:"last_updated" json:"lastUpdated"`
}

// CheckInvariant verifies the account balance equation.
func (a *MetalStockAccount) CheckInvariant() error {
	if a.TotalWeight != a.AvailableWeight+a.UsedWeight {
		return fmt.Errorf("metal account %s/%d: total %s != available %s + used %s",
			a.MetalType, a.Fineness, a.TotalWeight, a.AvailableWeight, a.UsedWeight)
	}
	if a.TotalWeight.IsNegative() || a.AvailableWeight.IsNegative() || a.UsedWeight.IsNegative() {
		return fmt.Errorf("metal account %s/%d: negative balance", a.MetalType, a.Fineness)
	}
	return nil
}

// ItemMovement represents a movement in the catalogue item stock register.
// Quantity-based, distinct from the weight-based metal ledger.
type ItemMovement struct {
	MovementBase

	// Dimensions
	ItemCode string `db:"item_code" json:"itemCode"`

	// Resources
	Quantity int64 `db:"quantity" json:"quantity"`
}

// NewItemMovement creates a new item stock movement.
func NewItemMovement(
	source SourceRef,
	period time.Time,
	recordType RecordType,
	itemCode string,
	quantity int64,
) ItemMovement {
	return ItemMovement{
		MovementBase: NewMovementBase(source, period, recordType),
		ItemCode:     itemCode,
		Quantity:     quantity,
	}
}

// ItemStockAccount is the running piece-count balance for one catalogue item.
type ItemStockAccount struct {
	ItemCode string `db:"item_code" json:"itemCode"`

	// Balances; invariant: TotalQty == AvailableQty + SoldQty, all >= 0
	TotalQty     int64 `db:"total_qty" json:"totalQty"`
	AvailableQty int64 `db:"available_qty" json:"availableQty"`
	SoldQty      int64 `db:"sold_qty" json:"soldQty"`

	Version     int       `db:"version" json:"version"`
	LastUpdated time.Time `db:"last_updated" json:"lastUpdated"`
}

// CheckInvariant verifies the account balance equation.
func (a *ItemStockAccount) CheckInvariant() error {
	if a.TotalQty != a.AvailableQty+a.SoldQty {
		return fmt.Errorf("item account %s: total %d != available %d + sold %d",
			a.ItemCode, a.TotalQty, a.AvailableQty, a.SoldQty)
	}
	if a.TotalQty < 0 || a.AvailableQty < 0 || a.SoldQty < 0 {
		return fmt.Errorf("item account %s: negative balance", a.ItemCode)
	}
	return nil
}
