// Package purity converts between the three ways metal purity is
// expressed (karat, fineness per mille, percentage) and derives
// pure-metal weight. All functions are pure; Purity is immutable.
package purity

import (
	"github.com/shopspring/decimal"

	"aurum/internal/core/apperror"
	"aurum/internal/core/types"
)

var (
	karatMax      = decimal.NewFromInt(24)
	percentageMax = decimal.NewFromInt(100)
	finenessMax   = decimal.NewFromInt(1000)
)

// Purity is a metal purity, stored internally in karat (0, 24].
// The three representations are mutually derivable via
// karat/24 == fineness/1000 == percentage/100.
type Purity struct {
	karat decimal.Decimal
}

// FromKarat builds a Purity from a karat value (0, 24].
func FromKarat(k decimal.Decimal) (Purity, error) {
	if !k.IsPositive() || k.GreaterThan(karatMax) {
		return Purity{}, apperror.NewInvalidPurity(k.String())
	}
	return Purity{karat: k.Round(2)}, nil
}

// FromFineness builds a Purity from parts per thousand (0, 1000].
func FromFineness(f decimal.Decimal) (Purity, error) {
	if !f.IsPositive() || f.GreaterThan(finenessMax) {
		return Purity{}, apperror.NewInvalidPurity(f.String())
	}
	return FromKarat(f.Mul(karatMax).Div(finenessMax))
}

// FromPercentage builds a Purity from a percentage (0, 100].
func FromPercentage(p decimal.Decimal) (Purity, error) {
	if !p.IsPositive() || p.GreaterThan(percentageMax) {
		return Purity{}, apperror.NewInvalidPurity(p.String())
	}
	return FromKarat(p.Mul(karatMax).Div(percentageMax))
}

// FromValue auto-detects the unit from the numeric range:
// (0, 24] karat, (24, 100] percentage, (100, 1000] fineness.
//
// Policy: values in the karat range are always read as karat, even though
// a value like 20 could in principle be a mis-entered percentage. This
// mirrors how operators enter purity on the floor and is intentional,
// not inferred.
func FromValue(v decimal.Decimal) (Purity, error) {
	switch {
	case !v.IsPositive() || v.GreaterThan(finenessMax):
		return Purity{}, apperror.NewInvalidPurity(v.String())
	case v.LessThanOrEqual(karatMax):
		return FromKarat(v)
	case v.LessThanOrEqual(percentageMax):
		return FromPercentage(v)
	default:
		return FromFineness(v)
	}
}

// MustFromValue parses a purity value, panics on error. Tests and constants only.
func MustFromValue(s string) Purity {
	p, err := FromValue(decimal.RequireFromString(s))
	if err != nil {
		panic(err)
	}
	return p
}

// Karat returns the purity in karat, rounded to 2 places.
func (p Purity) Karat() decimal.Decimal {
	return p.karat
}

// Fineness returns parts per thousand, rounded to a whole number.
func (p Purity) Fineness() int64 {
	return p.karat.Div(karatMax).Mul(finenessMax).Round(0).IntPart()
}

// Percentage returns the purity as a percentage, rounded to 2 places.
func (p Purity) Percentage() decimal.Decimal {
	return p.karat.Div(karatMax).Mul(percentageMax).Round(2)
}

// IsZero reports whether p is the zero value (no purity set).
func (p Purity) IsZero() bool {
	return p.karat.IsZero()
}

// Equal compares two purities at karat precision.
func (p Purity) Equal(other Purity) bool {
	return p.karat.Equal(other.karat)
}

// String renders the karat form, e.g. "22".
func (p Purity) String() string {
	return p.karat.String()
}

// PureWeight computes the pure-metal content of a gross weight:
// round(weight * karat/24, 3). Always <= weight; equal at 24K.
func (p Purity) PureWeight(weight types.Weight) types.Weight {
	pure := weight.Decimal().Mul(p.karat).Div(karatMax)
	return types.NewWeightFromDecimal(pure)
}

// GrossFromPure is the inverse of PureWeight:
// round(pureWeight / (karat/24), 3).
func (p Purity) GrossFromPure(pure types.Weight) types.Weight {
	gross := pure.Decimal().Mul(karatMax).Div(p.karat)
	return types.NewWeightFromDecimal(gross)
}
