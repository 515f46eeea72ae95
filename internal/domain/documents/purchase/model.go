// Package purchase provides the PurchaseInvoice document: incoming
// metal and stock from suppliers, valued at a negotiated seller
// percentage of the gross weight.
package purchase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/domain/events"
	"aurum/internal/domain/purity"
	"aurum/internal/domain/valuation"
)

// PurchaseInvoice represents goods received from a supplier.
type PurchaseInvoice struct {
	entity.Document

	// Supplier reference
	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	// Supplier's own invoice reference
	SupplierInvoiceNo   string     `db:"supplier_invoice_no" json:"supplierInvoiceNo,omitempty"`
	SupplierInvoiceDate *time.Time `db:"supplier_invoice_date" json:"supplierInvoiceDate,omitempty"`

	// Totals (calculated from lines; frozen on confirmation)
	Totals valuation.PurchaseInvoiceTotals `json:"totals"`

	// Table part
	Lines []Line `db:"-" json:"lines"`
}

// Line is one purchased lot. The seller percentage is the negotiated
// payable fraction of the gross weight; the remainder covers impurities
// and handling. When ItemCode is set the lot is finished stock and the
// purchase also credits the item register on reconciliation.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	Description string `db:"description" json:"description,omitempty"`

	// Optional catalogue reference for finished goods
	ItemCode string `db:"item_code" json:"itemCode,omitempty"`
	Quantity int64  `db:"quantity" json:"quantity,omitempty"`

	// Metal dimensions
	MetalType string `db:"metal_type" json:"metalType"`
	Fineness  int64  `db:"fineness" json:"fineness"`

	// Weights
	GrossWeight      types.Weight    `db:"gross_weight" json:"grossWeight"`
	SellerPercentage decimal.Decimal `db:"seller_percentage" json:"sellerPercentage"`
	NetWeight        types.Weight    `db:"net_weight" json:"netWeight"`

	// Pricing
	RatePerTenGrams types.Money `db:"rate_per_ten_grams" json:"ratePerTenGrams"`
	Amount          types.Money `db:"amount" json:"amount"`
}

// NewPurchaseInvoice creates a new draft purchase invoice.
func NewPurchaseInvoice(supplierID id.ID) *PurchaseInvoice {
	return &PurchaseInvoice{
		Document:   entity.NewDocument(),
		SupplierID: supplierID,
		Lines:      make([]Line, 0),
	}
}

// LineInput carries operator-entered values for a purchase line.
type LineInput struct {
	Description      string
	ItemCode         string
	Quantity         int64
	MetalType        string
	PurityValue      decimal.Decimal
	GrossWeight      types.Weight
	SellerPercentage decimal.Decimal
	RatePerTenGrams  types.Money
}

// AddLine values the input and appends it:
// netWeight = round(gross * sellerPct/100, 3), amount = net * rate/10.
func (p *PurchaseInvoice) AddLine(in LineInput) error {
	if err := p.CanModify(); err != nil {
		return err
	}
	if in.MetalType == "" {
		return apperror.NewValidation("metal type is required").
			WithDetail("field", "metalType")
	}
	if !in.SellerPercentage.IsPositive() || in.SellerPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return apperror.NewValidation("seller percentage must be in (0, 100]").
			WithDetail("seller_percentage", in.SellerPercentage.String())
	}
	if !in.GrossWeight.IsPositive() {
		return apperror.NewInvalidWeight("gross weight must be positive")
	}
	if in.ItemCode != "" && in.Quantity <= 0 {
		return apperror.NewValidation("quantity is required for catalogue items").
			WithDetail("field", "quantity")
	}

	pur, err := purity.FromValue(in.PurityValue)
	if err != nil {
		return err
	}

	net := types.NewWeightFromDecimal(
		in.GrossWeight.Decimal().Mul(in.SellerPercentage).Div(decimal.NewFromInt(100)))

	p.Lines = append(p.Lines, Line{
		LineID:           id.New(),
		LineNo:           len(p.Lines) + 1,
		Description:      in.Description,
		ItemCode:         in.ItemCode,
		Quantity:         in.Quantity,
		MetalType:        in.MetalType,
		Fineness:         pur.Fineness(),
		GrossWeight:      in.GrossWeight,
		SellerPercentage: in.SellerPercentage,
		NetWeight:        net,
		RatePerTenGrams:  in.RatePerTenGrams,
		Amount:           valuation.LineAmount(net, in.RatePerTenGrams),
	})
	return nil
}

// RemoveLine deletes a line by id and renumbers the rest.
func (p *PurchaseInvoice) RemoveLine(lineID id.ID) error {
	if err := p.CanModify(); err != nil {
		return err
	}
	for i, l := range p.Lines {
		if l.LineID == lineID {
			p.Lines = append(p.Lines[:i], p.Lines[i+1:]...)
			for j := range p.Lines {
				p.Lines[j].LineNo = j + 1
			}
			return nil
		}
	}
	return apperror.NewNotFound("purchase line", lineID)
}

// RecalculateTotals recomputes totals from lines.
func (p *PurchaseInvoice) RecalculateTotals() {
	amounts := make([]types.Money, 0, len(p.Lines))
	for _, l := range p.Lines {
		amounts = append(amounts, l.Amount)
	}
	p.Totals = valuation.ComputePurchaseInvoiceTotals(amounts,
		p.Totals.Discount, p.Totals.TransportCharge, p.Totals.OtherCharge,
		p.Totals.GSTRate, p.Totals.PaidAmount)
}

// SetPaidAmount records the amount settled with the supplier and
// recomputes the pending balance.
func (p *PurchaseInvoice) SetPaidAmount(amount types.Money) error {
	if err := p.CanModify(); err != nil {
		return err
	}
	if amount.IsNegative() {
		return apperror.NewValidation("paid amount must not be negative").
			WithDetail("paidAmount", amount.String())
	}
	p.Totals.PaidAmount = amount
	p.RecalculateTotals()
	return nil
}

// SetCharges updates discount, transport and other charges and recomputes.
func (p *PurchaseInvoice) SetCharges(discount, transport, other types.Money) error {
	if err := p.CanModify(); err != nil {
		return err
	}
	for name, v := range map[string]types.Money{
		"discount": discount, "transport": transport, "other": other,
	} {
		if v.IsNegative() {
			return apperror.NewValidation(name + " must not be negative").
				WithDetail(name, v.String())
		}
	}
	p.Totals.Discount = discount
	p.Totals.TransportCharge = transport
	p.Totals.OtherCharge = other
	p.RecalculateTotals()
	return nil
}

// SetGSTRate updates the GST percentage and recomputes totals.
func (p *PurchaseInvoice) SetGSTRate(rate types.Money) error {
	if err := p.CanModify(); err != nil {
		return err
	}
	if rate.IsNegative() {
		return apperror.NewValidation("gst rate must not be negative").
			WithDetail("gst_rate", rate.String())
	}
	p.Totals.GSTRate = rate
	p.RecalculateTotals()
	return nil
}

// Validate implements entity.Validatable.
func (p *PurchaseInvoice) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(p.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}

	if len(p.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	return nil
}

// ReconcilePayload carries the register effects of this purchase.
type ReconcilePayload struct {
	InvoiceID id.ID        `json:"invoiceId"`
	Number    string       `json:"number"`
	Date      time.Time    `json:"date"`
	Metal     []MetalEntry `json:"metal"`
	Items     []ItemEntry  `json:"items,omitempty"`
}

// MetalEntry is one metal ledger credit.
type MetalEntry struct {
	MetalType string       `json:"metalType"`
	Fineness  int64        `json:"fineness"`
	Weight    types.Weight `json:"weight"`
}

// ItemEntry is one item register credit for finished goods.
type ItemEntry struct {
	ItemCode string `json:"itemCode"`
	Quantity int64  `json:"quantity"`
}

func (p *PurchaseInvoice) reconcilePayload() ReconcilePayload {
	out := ReconcilePayload{
		InvoiceID: p.ID,
		Number:    p.Number,
		Date:      p.Date,
	}
	for _, l := range p.Lines {
		out.Metal = append(out.Metal, MetalEntry{MetalType: l.MetalType, Fineness: l.Fineness, Weight: l.NetWeight})
		if l.ItemCode != "" {
			out.Items = append(out.Items, ItemEntry{ItemCode: l.ItemCode, Quantity: l.Quantity})
		}
	}
	return out
}

// ConfirmedEvent builds the outbox event published on confirmation.
func (p *PurchaseInvoice) ConfirmedEvent() (events.DomainEvent, error) {
	return events.NewDomainEvent(events.AggregatePurchase, p.ID, events.TypePurchaseConfirmed, p.reconcilePayload())
}

// CancelledEvent builds the compensation event for an invoice cancelled
// after its stock effects were already applied.
func (p *PurchaseInvoice) CancelledEvent() (events.DomainEvent, error) {
	return events.NewDomainEvent(events.AggregatePurchase, p.ID, events.TypePurchaseCancelled, p.reconcilePayload())
}
