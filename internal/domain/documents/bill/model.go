// Package bill provides the sale Bill document: retail sale lines,
// old-metal exchange lines, GST totals and payment tracking.
package bill

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

// Bill represents a retail sale. Sale lines move catalogue items out of
// stock; exchange lines take the customer's old metal in against the
// bill amount and feed the metal ledger.
type Bill struct {
	entity.Document

	// Customer reference
	CustomerID id.ID `db:"customer_id" json:"customerId"`

	// Totals (calculated from lines; frozen on confirmation)
	Totals valuation.BillTotals `json:"totals"`

	// Table parts
	SaleLines     []SaleLine     `db:"-" json:"saleLines"`
	ExchangeLines []ExchangeLine `db:"-" json:"exchangeLines"`
	Payments      []Payment      `db:"-" json:"payments,omitempty"`
}

// SaleLine is one sold piece (or set of identical pieces) on a bill.
// Weight fields refer to the whole line, not per piece.
type SaleLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	// Catalogue reference
	ItemCode    string `db:"item_code" json:"itemCode"`
	Description string `db:"description" json:"description,omitempty"`

	// Metal dimensions, for stock reporting
	MetalType string `db:"metal_type" json:"metalType"`
	Fineness  int64  `db:"fineness" json:"fineness"`

	Quantity int64 `db:"quantity" json:"quantity"`

	// Weights
	GrossWeight  types.Weight    `db:"gross_weight" json:"grossWeight"`
	DeductionPct decimal.Decimal `db:"deduction_pct" json:"deductionPct"`
	NetWeight    types.Weight    `db:"net_weight" json:"netWeight"`

	// Pricing
	RatePerTenGrams types.Money `db:"rate_per_ten_grams" json:"ratePerTenGrams"`
	MakingCharge    types.Money `db:"making_charge" json:"makingCharge"`
	OtherCharge     types.Money `db:"other_charge" json:"otherCharge"`
	Amount          types.Money `db:"amount" json:"amount"`
}

// ExchangeLine is old metal taken in from the customer. Its amount is
// deducted from the bill; its net weight is credited to the metal ledger
// on reconciliation.
type ExchangeLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	MetalType string `db:"metal_type" json:"metalType"`
	Fineness  int64  `db:"fineness" json:"fineness"`

	GrossWeight  types.Weight    `db:"gross_weight" json:"grossWeight"`
	DeductionPct decimal.Decimal `db:"deduction_pct" json:"deductionPct"`
	NetWeight    types.Weight    `db:"net_weight" json:"netWeight"`

	RatePerTenGrams types.Money `db:"rate_per_ten_grams" json:"ratePerTenGrams"`
	Amount          types.Money `db:"amount" json:"amount"`
}

// Payment is one recorded payment against a confirmed bill.
type Payment struct {
	PaymentID id.ID       `db:"payment_id" json:"paymentId"`
	BillID    id.ID       `db:"bill_id" json:"billId"`
	Amount    types.Money `db:"amount" json:"amount"`
	Method    string      `db:"method" json:"method"`
	Reference string      `db:"reference" json:"reference,omitempty"`
	PaidAt    time.Time   `db:"paid_at" json:"paidAt"`
}

// NewBill creates a new draft bill for a customer.
func NewBill(customerID id.ID) *Bill {
	return &Bill{
		Document:      entity.NewDocument(),
		CustomerID:    customerID,
		SaleLines:     make([]SaleLine, 0),
		ExchangeLines: make([]ExchangeLine, 0),
	}
}

// SaleLineInput carries operator-entered values for a sale line.
// PurityValue accepts karat, percentage or fineness.
type SaleLineInput struct {
	ItemCode        string
	Description     string
	MetalType       string
	PurityValue     decimal.Decimal
	Quantity        int64
	GrossWeight     types.Weight
	DeductionPct    decimal.Decimal
	RatePerTenGrams types.Money
	MakingCharge    types.Money
	OtherCharge     types.Money
}

// AddSaleLine values the input and appends it. Call RecalculateTotals
// before saving.
func (b *Bill) AddSaleLine(in SaleLineInput) error {
	if err := b.CanModify(); err != nil {
		return err
	}
	if in.ItemCode == "" {
		return apperror.NewValidation("item code is required").
			WithDetail("field", "itemCode")
	}
	if in.Quantity <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	p, err := purity.FromValue(in.PurityValue)
	if err != nil {
		return err
	}

	net, err := valuation.NetWeight(in.GrossWeight, in.DeductionPct)
	if err != nil {
		return err
	}

	b.SaleLines = append(b.SaleLines, SaleLine{
		LineID:          id.New(),
		LineNo:          len(b.SaleLines) + 1,
		ItemCode:        in.ItemCode,
		Description:     in.Description,
		MetalType:       in.MetalType,
		Fineness:        p.Fineness(),
		Quantity:        in.Quantity,
		GrossWeight:     in.GrossWeight,
		DeductionPct:    in.DeductionPct,
		NetWeight:       net,
		RatePerTenGrams: in.RatePerTenGrams,
		MakingCharge:    in.MakingCharge,
		OtherCharge:     in.OtherCharge,
		Amount:          valuation.LineAmount(net, in.RatePerTenGrams, in.MakingCharge, in.OtherCharge),
	})
	return nil
}

// ExchangeLineInput carries operator-entered values for an exchange line.
type ExchangeLineInput struct {
	MetalType       string
	PurityValue     decimal.Decimal
	GrossWeight     types.Weight
	DeductionPct    decimal.Decimal
	RatePerTenGrams types.Money
}

// AddExchangeLine values the customer's old metal and appends it.
func (b *Bill) AddExchangeLine(in ExchangeLineInput) error {
	if err := b.CanModify(); err != nil {
		return err
	}
	if in.MetalType == "" {
		return apperror.NewValidation("metal type is required").
			WithDetail("field", "metalType")
	}

	p, err := purity.FromValue(in.PurityValue)
	if err != nil {
		return err
	}

	net, err := valuation.NetWeight(in.GrossWeight, in.DeductionPct)
	if err != nil {
		return err
	}
	if net.IsZero() {
		return apperror.NewInvalidWeight("exchange line must have positive net weight")
	}

	b.ExchangeLines = append(b.ExchangeLines, ExchangeLine{
		LineID:          id.New(),
		LineNo:          len(b.ExchangeLines) + 1,
		MetalType:       in.MetalType,
		Fineness:        p.Fineness(),
		GrossWeight:     in.GrossWeight,
		DeductionPct:    in.DeductionPct,
		NetWeight:       net,
		RatePerTenGrams: in.RatePerTenGrams,
		Amount:          valuation.LineAmount(net, in.RatePerTenGrams),
	})
	return nil
}

// RemoveSaleLine deletes a line by id and renumbers the rest.
func (b *Bill) RemoveSaleLine(lineID id.ID) error {
	if err := b.CanModify(); err != nil {
		return err
	}
	for i, l := range b.SaleLines {
		if l.LineID == lineID {
			b.SaleLines = append(b.SaleLines[:i], b.SaleLines[i+1:]...)
			for j := range b.SaleLines {
				b.SaleLines[j].LineNo = j + 1
			}
			return nil
		}
	}
	return apperror.NewNotFound("sale line", lineID)
}

// RemoveExchangeLine deletes an exchange line by id and renumbers the rest.
func (b *Bill) RemoveExchangeLine(lineID id.ID) error {
	if err := b.CanModify(); err != nil {
		return err
	}
	for i, l := range b.ExchangeLines {
		if l.LineID == lineID {
			b.ExchangeLines = append(b.ExchangeLines[:i], b.ExchangeLines[i+1:]...)
			for j := range b.ExchangeLines {
				b.ExchangeLines[j].LineNo = j + 1
			}
			return nil
		}
	}
	return apperror.NewNotFound("exchange line", lineID)
}

// RecalculateTotals recomputes totals from lines. Explicit call, never
// a save-time side effect, so callers always see what they persist.
func (b *Bill) RecalculateTotals() {
	saleAmounts := make([]types.Money, 0, len(b.SaleLines))
	for _, l := range b.SaleLines {
		saleAmounts = append(saleAmounts, l.Amount)
	}
	exchangeAmounts := make([]types.Money, 0, len(b.ExchangeLines))
	for _, l := range b.ExchangeLines {
		exchangeAmounts = append(exchangeAmounts, l.Amount)
	}
	b.Totals = valuation.ComputeBillTotals(saleAmounts, exchangeAmounts,
		b.Totals.Discount, b.Totals.GSTRate, b.Totals.PaidAmount)
}

// SetDiscount updates the bill discount and recomputes totals.
func (b *Bill) SetDiscount(discount types.Money) error {
	if err := b.CanModify(); err != nil {
		return err
	}
	if discount.IsNegative() {
		return apperror.NewValidation("discount must not be negative").
			WithDetail("discount", discount.String())
	}
	b.Totals.Discount = discount
	b.RecalculateTotals()
	return nil
}

// SetGSTRate updates the GST percentage and recomputes totals.
func (b *Bill) SetGSTRate(rate types.Money) error {
	if err := b.CanModify(); err != nil {
		return err
	}
	if rate.IsNegative() {
		return apperror.NewValidation("gst rate must not be negative").
			WithDetail("gst_rate", rate.String())
	}
	b.Totals.GSTRate = rate
	b.RecalculateTotals()
	return nil
}

// Validate implements entity.Validatable.
func (b *Bill) Validate(ctx context.Context) error {
	if err := b.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(b.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}

	if len(b.SaleLines) == 0 {
		return apperror.NewValidation("at least one sale line is required").
			WithDetail("field", "saleLines")
	}

	for _, l := range b.SaleLines {
		if l.ItemCode == "" {
			return apperror.NewValidation("item code is required").
				WithDetail("field", "saleLines").
				WithDetail("lineNo", l.LineNo)
		}
		if l.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "saleLines").
				WithDetail("lineNo", l.LineNo)
		}
	}

	if b.Totals.GrandTotal.IsNegative() {
		return apperror.NewBusinessRule(apperror.CodeValidation,
			"exchange value exceeds bill amount").
			WithDetail("grand_total", b.Totals.GrandTotal.String())
	}

	return nil
}

// ItemEntry is one catalogue item affected by bill reconciliation.
type ItemEntry struct {
	ItemCode string `json:"itemCode"`
	Quantity int64  `json:"quantity"`
}

// MetalEntry is one metal ledger credit produced by exchange lines.
type MetalEntry struct {
	MetalType string       `json:"metalType"`
	Fineness  int64        `json:"fineness"`
	Weight    types.Weight `json:"weight"`
}

// ReconcilePayload carries everything the reconciliation worker needs,
// so processing never depends on re-reading the document lines.
type ReconcilePayload struct {
	BillID id.ID        `json:"billId"`
	Number string       `json:"number"`
	Date   time.Time    `json:"date"`
	Items  []ItemEntry  `json:"items"`
	Metal  []MetalEntry `json:"metal"`
}

func (b *Bill) reconcilePayload() ReconcilePayload {
	p := ReconcilePayload{
		BillID: b.ID,
		Number: b.Number,
		Date:   b.Date,
	}
	for _, l := range b.SaleLines {
		p.Items = append(p.Items, ItemEntry{ItemCode: l.ItemCode, Quantity: l.Quantity})
	}
	for _, l := range b.ExchangeLines {
		p.Metal = append(p.Metal, MetalEntry{MetalType: l.MetalType, Fineness: l.Fineness, Weight: l.NetWeight})
	}
	return p
}

// ConfirmedEvent builds the outbox event published on confirmation.
func (b *Bill) ConfirmedEvent() (events.DomainEvent, error) {
	return events.NewDomainEvent(events.AggregateBill, b.ID, events.TypeBillConfirmed, b.reconcilePayload())
}

// CancelledEvent builds the compensation event for a bill cancelled
// after its stock effects were already applied.
func (b *Bill) CancelledEvent() (events.DomainEvent, error) {
	return events.NewDomainEvent(events.AggregateBill, b.ID, events.TypeBillCancelled, b.reconcilePayload())
}
