package valuation

import "aurum/internal/core/types"

// PurchaseInvoiceTotals is the monetary summary of a purchase invoice.
type PurchaseInvoiceTotals struct {
	Subtotal        types.Money `db:"subtotal" json:"subtotal"`
	Discount        types.Money `db:"discount" json:"discount"`
	TransportCharge types.Money `db:"transport_charge" json:"transportCharge"`
	OtherCharge     types.Money `db:"other_charge" json:"otherCharge"`
	GSTRate         types.Money `db:"gst_rate" json:"gstRate"`
	TotalTax        types.Money `db:"total_tax" json:"totalTax"`
	GrandTotal      types.Money `db:"grand_total" json:"grandTotal"`
	PaidAmount      types.Money `db:"paid_amount" json:"paidAmount"`
	PendingAmount   types.Money `db:"pending_amount" json:"pendingAmount"`
}

// ComputePurchaseInvoiceTotals aggregates line amounts into invoice
// totals. Unlike a sale bill, tax applies to the taxable base after
// discount and charges, not the raw subtotal:
//
//	base       = subtotal - discount + transport + other
//	totalTax   = round(base * gstRate/100, 2)
//	grandTotal = base + totalTax
//	pending    = max(grandTotal - paid, 0)
func ComputePurchaseInvoiceTotals(lineAmounts []types.Money, discount, transport, other, gstRate, paid types.Money) PurchaseInvoiceTotals {
	subtotal := types.ZeroMoney()
	for _, a := range lineAmounts {
		subtotal = subtotal.Add(a)
	}

	base := subtotal.Sub(discount).Add(transport).Add(other)
	totalTax := types.RoundMoney(base.Mul(gstRate).Div(hundred))
	grandTotal := base.Add(totalTax)

	return PurchaseInvoiceTotals{
		Subtotal:        subtotal,
		Discount:        discount,
		TransportCharge: transport,
		OtherCharge:     other,
		GSTRate:         gstRate,
		TotalTax:        totalTax,
		GrandTotal:      grandTotal,
		PaidAmount:      paid,
		PendingAmount:   pending(grandTotal, paid),
	}
}
