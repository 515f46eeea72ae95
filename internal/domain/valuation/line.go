// Package valuation turns line-item weight/rate entries into monetary
// amounts and aggregates them into bill and purchase invoice totals.
// Everything here is pure: no state, no side effects, safe to call
// concurrently for different documents.
package valuation

import (
	"github.com/shopspring/decimal"

	"aurum/internal/core/apperror"
	"aurum/internal/core/types"
)

var (
	hundred = decimal.NewFromInt(100)
	ten     = decimal.NewFromInt(10)
	two     = decimal.NewFromInt(2)
)

// NetWeight applies a percentage deduction (wastage, stone weight,
// exchange haircut) to a gross weight:
// net = gross - round(gross * pct/100, 3).
//
// A deduction that would drive the net weight negative is rejected,
// not clamped to zero: it signals a data-entry error upstream.
func NetWeight(gross types.Weight, deductionPct decimal.Decimal) (types.Weight, error) {
	if gross.IsNegative() {
		return 0, apperror.NewInvalidWeight("gross weight must not be negative").
			WithDetail("gross_weight", gross.String())
	}
	if deductionPct.IsNegative() {
		return 0, apperror.NewValidation("deduction percentage must not be negative").
			WithDetail("deduction_pct", deductionPct.String())
	}
	deduction := types.NewWeightFromDecimal(gross.Decimal().Mul(deductionPct).Div(hundred))
	net := gross.Sub(deduction)
	if net.IsNegative() {
		return 0, apperror.NewInvalidWeight("deduction exceeds gross weight").
			WithDetail("gross_weight", gross.String()).
			WithDetail("deduction", deduction.String())
	}
	return net, nil
}

// NetWeightFlat subtracts a flat weight deduction instead of a percentage.
func NetWeightFlat(gross, deduction types.Weight) (types.Weight, error) {
	if gross.IsNegative() {
		return 0, apperror.NewInvalidWeight("gross weight must not be negative").
			WithDetail("gross_weight", gross.String())
	}
	net := gross.Sub(deduction)
	if net.IsNegative() {
		return 0, apperror.NewInvalidWeight("deduction exceeds gross weight").
			WithDetail("gross_weight", gross.String()).
			WithDetail("deduction", deduction.String())
	}
	return net, nil
}

// LineAmount values a line item from its net weight and the market rate
// quoted per ten grams:
// amount = round(net * rate/10, 2) + sum(charges).
// Charges cover labour, making and other additive costs.
func LineAmount(net types.Weight, ratePerTenGrams types.Money, charges ...types.Money) types.Money {
	amount := types.RoundMoney(net.Decimal().Mul(ratePerTenGrams).Div(ten))
	for _, c := range charges {
		amount = amount.Add(c)
	}
	return amount
}
