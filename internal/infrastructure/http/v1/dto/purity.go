package dto

import (
	"github.com/shopspring/decimal"

	"aurum/internal/core/types"
	"aurum/internal/domain/purity"
)

// PurityConvertRequest converts a purity value between representations.
// Value unit is detected from the numeric range: (0, 24] karat,
// (24, 100] percentage, (100, 1000] fineness. Weight, when given, is
// the gross weight to derive pure-metal content from.
type PurityConvertRequest struct {
	Value  decimal.Decimal `form:"value" binding:"required"`
	Weight *types.Weight   `form:"weight"`
}

// PurityConvertResponse carries all three representations and the
// optional derived pure weight.
type PurityConvertResponse struct {
	Karat      decimal.Decimal `json:"karat"`
	Fineness   int64           `json:"fineness"`
	Percentage decimal.Decimal `json:"percentage"`
	PureWeight *types.Weight   `json:"pureWeight,omitempty"`
}

// FromPurity builds a conversion response.
func FromPurity(p purity.Purity, weight *types.Weight) *PurityConvertResponse {
	resp := &PurityConvertResponse{
		Karat:      p.Karat(),
		Fineness:   p.Fineness(),
		Percentage: p.Percentage(),
	}
	if weight != nil {
		pure := p.PureWeight(*weight)
		resp.PureWeight = &pure
	}
	return resp
}
