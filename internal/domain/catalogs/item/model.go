// Package item provides the jewellery item catalog.
package item

import (
	"context"
	"regexp"

	"github.com/shopspring/decimal"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/types"
	"aurum/internal/domain/purity"
)

var barcodeRE = regexp.MustCompile(`^\d{8,14}$`)

// Category groups items for reporting.
type Category string

const (
	CategoryRing     Category = "ring"
	CategoryChain    Category = "chain"
	CategoryBangle   Category = "bangle"
	CategoryEarring  Category = "earring"
	CategoryPendant  Category = "pendant"
	CategoryBracelet Category = "bracelet"
	CategoryCoin     Category = "coin"
	CategoryOther    Category = "other"
)

// Item represents one catalogued jewellery design. Weights here are
// per-piece defaults; the actual weighed values are entered on the bill.
type Item struct {
	entity.Catalog

	Category Category `db:"category" json:"category"`

	// Metal dimensions
	MetalType string `db:"metal_type" json:"metalType"`
	Fineness  int64  `db:"fineness" json:"fineness"`

	// Default per-piece weights
	GrossWeight types.Weight `db:"gross_weight" json:"grossWeight"`

	// Default making charge per piece
	MakingCharge types.Money `db:"making_charge" json:"makingCharge"`

	// HSNCode for GST reporting
	HSNCode *string `db:"hsn_code" json:"hsnCode,omitempty"`

	// Barcode (EAN-8 .. EAN-14)
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// MinStock triggers the low-stock report when available drops below it
	MinStock int64 `db:"min_stock" json:"minStock"`
}

// NewItem creates a new catalog item.
func NewItem(code, name string, category Category, metalType string, purityValue decimal.Decimal) (*Item, error) {
	p, err := purity.FromValue(purityValue)
	if err != nil {
		return nil, err
	}
	return &Item{
		Catalog:   entity.NewCatalog(code, name),
		Category:  category,
		MetalType: metalType,
		Fineness:  p.Fineness(),
	}, nil
}

// Validate implements entity.Validatable.
func (i *Item) Validate(ctx context.Context) error {
	if err := i.Catalog.Validate(ctx); err != nil {
		return err
	}

	if i.MetalType == "" {
		return apperror.NewValidation("metal type is required").
			WithDetail("field", "metalType")
	}

	if i.Fineness <= 0 || i.Fineness > 1000 {
		return apperror.NewValidation("fineness must be in (0, 1000]").
			WithDetail("field", "fineness")
	}

	if i.GrossWeight.IsNegative() {
		return apperror.NewInvalidWeight("default gross weight must not be negative")
	}

	if i.MakingCharge.IsNegative() {
		return apperror.NewValidation("making charge must not be negative").
			WithDetail("field", "makingCharge")
	}

	if i.Barcode != nil && *i.Barcode != "" && !barcodeRE.MatchString(*i.Barcode) {
		return apperror.NewValidation("barcode must be 8-14 digits").
			WithDetail("field", "barcode")
	}

	if i.MinStock < 0 {
		return apperror.NewValidation("min stock must not be negative").
			WithDetail("field", "minStock")
	}

	return nil
}
