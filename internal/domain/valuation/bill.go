package valuation

import (
	"aurum/internal/core/apperror"
	"aurum/internal/core/types"
)

// BillTotals is the monetary summary of a sale bill.
// Immutable value object; recomputed from lines while the bill is a
// draft, frozen on confirmation (only paid/pending change afterwards,
// via ApplyPayment).
type BillTotals struct {
	Subtotal       types.Money `db:"subtotal" json:"subtotal"`
	Discount       types.Money `db:"discount" json:"discount"`
	GSTRate        types.Money `db:"gst_rate" json:"gstRate"`
	TotalTax       types.Money `db:"total_tax" json:"totalTax"`
	CGSTAmount     types.Money `db:"cgst_amount" json:"cgstAmount"`
	SGSTAmount     types.Money `db:"sgst_amount" json:"sgstAmount"`
	ExchangeAmount types.Money `db:"exchange_amount" json:"exchangeAmount"`
	GrandTotal     types.Money `db:"grand_total" json:"grandTotal"`
	PaidAmount     types.Money `db:"paid_amount" json:"paidAmount"`
	PendingAmount  types.Money `db:"pending_amount" json:"pendingAmount"`
}

// ComputeBillTotals aggregates sale and exchange line amounts into
// bill totals:
//
//	netAfterDiscount = subtotal - discount
//	totalTax  = round(subtotal * gstRate/100, 2), split equally CGST/SGST
//	grandTotal = netAfterDiscount + totalTax - exchangeAmount
//	pending    = max(0, grandTotal - paid)
//
// Only pendingAmount is floored at zero (explicit business rule);
// a negative grand total is left visible for the caller to reject.
func ComputeBillTotals(saleAmounts, exchangeAmounts []types.Money, discount, gstRate, paid types.Money) BillTotals {
	subtotal := types.ZeroMoney()
	for _, a := range saleAmounts {
		subtotal = subtotal.Add(a)
	}
	exchangeAmount := types.ZeroMoney()
	for _, a := range exchangeAmounts {
		exchangeAmount = exchangeAmount.Add(a)
	}

	netAfterDiscount := subtotal.Sub(discount)
	totalTax := types.RoundMoney(subtotal.Mul(gstRate).Div(hundred))
	half := types.RoundMoney(totalTax.Div(two))
	grandTotal := netAfterDiscount.Add(totalTax).Sub(exchangeAmount)

	return BillTotals{
		Subtotal:       subtotal,
		Discount:       discount,
		GSTRate:        gstRate,
		TotalTax:       totalTax,
		CGSTAmount:     half,
		SGSTAmount:     half,
		ExchangeAmount: exchangeAmount,
		GrandTotal:     grandTotal,
		PaidAmount:     paid,
		PendingAmount:  pending(grandTotal, paid),
	}
}

// PaymentPolicy decides whether a payment pushing paid beyond the grand
// total is acceptable. The ledger never decides this silently.
type PaymentPolicy interface {
	AllowPayment(grandTotal, paid, amount types.Money) error
}

// ApplyPayment records an additional payment on frozen totals.
// Only PaidAmount and PendingAmount are recomputed; every other field
// is carried over untouched. The policy is consulted before accepting
// a payment that would exceed the grand total.
func ApplyPayment(totals BillTotals, amount types.Money, policy PaymentPolicy) (BillTotals, error) {
	if !amount.IsPositive() {
		return totals, apperror.NewValidation("payment amount must be positive").
			WithDetail("amount", amount.String())
	}
	if policy != nil {
		if err := policy.AllowPayment(totals.GrandTotal, totals.PaidAmount, amount); err != nil {
			return totals, err
		}
	}

	updated := totals
	updated.PaidAmount = totals.PaidAmount.Add(amount)
	updated.PendingAmount = pending(totals.GrandTotal, updated.PaidAmount)
	return updated, nil
}

// pending floors the outstanding amount at zero.
func pending(grandTotal, paid types.Money) types.Money {
	p := grandTotal.Sub(paid)
	if p.IsNegative() {
		return types.ZeroMoney()
	}
	return p
}
