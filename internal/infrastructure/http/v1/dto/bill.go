package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/domain/documents/bill"
	"aurum/internal/domain/valuation"
)

// --- Request DTOs ---

// SaleLineRequest represents a sale line in create/update requests.
// Weights are grams with up to three decimals; PurityValue accepts
// karat, percentage or fineness.
type SaleLineRequest struct {
	ItemCode        string          `json:"itemCode" binding:"required"`
	Description     string          `json:"description,omitempty"`
	MetalType       string          `json:"metalType" binding:"required"`
	PurityValue     decimal.Decimal `json:"purityValue" binding:"required"`
	Quantity        int64           `json:"quantity" binding:"required,gt=0"`
	GrossWeight     types.Weight    `json:"grossWeight" binding:"required"`
	DeductionPct    decimal.Decimal `json:"deductionPct,omitempty"`
	RatePerTenGrams types.Money     `json:"ratePerTenGrams" binding:"required"`
	MakingCharge    types.Money     `json:"makingCharge,omitempty"`
	OtherCharge     types.Money     `json:"otherCharge,omitempty"`
}

func (r SaleLineRequest) toInput() bill.SaleLineInput {
	return bill.SaleLineInput{
		ItemCode:        r.ItemCode,
		Description:     r.Description,
		MetalType:       r.MetalType,
		PurityValue:     r.PurityValue,
		Quantity:        r.Quantity,
		GrossWeight:     r.GrossWeight,
		DeductionPct:    r.DeductionPct,
		RatePerTenGrams: r.RatePerTenGrams,
		MakingCharge:    r.MakingCharge,
		OtherCharge:     r.OtherCharge,
	}
}

// ExchangeLineRequest represents an old-metal exchange line.
type ExchangeLineRequest struct {
	MetalType       string          `json:"metalType" binding:"required"`
	PurityValue     decimal.Decimal `json:"purityValue" binding:"required"`
	GrossWeight     types.Weight    `json:"grossWeight" binding:"required"`
	DeductionPct    decimal.Decimal `json:"deductionPct,omitempty"`
	RatePerTenGrams types.Money     `json:"ratePerTenGrams" binding:"required"`
}

func (r ExchangeLineRequest) toInput() bill.ExchangeLineInput {
	return bill.ExchangeLineInput{
		MetalType:       r.MetalType,
		PurityValue:     r.PurityValue,
		GrossWeight:     r.GrossWeight,
		DeductionPct:    r.DeductionPct,
		RatePerTenGrams: r.RatePerTenGrams,
	}
}

// CreateBillRequest represents a request to create a bill.
type CreateBillRequest struct {
	Number        string                `json:"number,omitempty"`
	Date          *time.Time            `json:"date,omitempty"`
	CustomerID    string                `json:"customerId" binding:"required"`
	Comment       string                `json:"comment,omitempty"`
	Discount      types.Money           `json:"discount,omitempty"`
	GSTRate       types.Money           `json:"gstRate,omitempty"`
	SaleLines     []SaleLineRequest     `json:"saleLines" binding:"required,min=1,dive"`
	ExchangeLines []ExchangeLineRequest `json:"exchangeLines,omitempty" binding:"omitempty,dive"`
}

// ToEntity converts request to domain entity.
func (r *CreateBillRequest) ToEntity() (*bill.Bill, error) {
	customerID, err := id.Parse(r.CustomerID)
	if err != nil {
		return nil, err
	}

	doc := bill.NewBill(customerID)
	doc.Number = r.Number
	doc.Comment = r.Comment
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.Totals.Discount = r.Discount
	doc.Totals.GSTRate = r.GSTRate

	for _, line := range r.SaleLines {
		if err := doc.AddSaleLine(line.toInput()); err != nil {
			return nil, err
		}
	}
	for _, line := range r.ExchangeLines {
		if err := doc.AddExchangeLine(line.toInput()); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// UpdateBillRequest represents a request to update a draft bill.
// Providing a lines slice replaces the whole table part.
type UpdateBillRequest struct {
	Date          *time.Time            `json:"date,omitempty"`
	CustomerID    *string               `json:"customerId,omitempty"`
	Comment       *string               `json:"comment,omitempty"`
	Discount      *types.Money          `json:"discount,omitempty"`
	GSTRate       *types.Money          `json:"gstRate,omitempty"`
	SaleLines     []SaleLineRequest     `json:"saleLines,omitempty" binding:"omitempty,dive"`
	ExchangeLines []ExchangeLineRequest `json:"exchangeLines,omitempty" binding:"omitempty,dive"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateBillRequest) ApplyTo(doc *bill.Bill) error {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.CustomerID != nil {
		customerID, err := id.Parse(*r.CustomerID)
		if err != nil {
			return err
		}
		doc.CustomerID = customerID
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}
	if r.Discount != nil {
		doc.Totals.Discount = *r.Discount
	}
	if r.GSTRate != nil {
		doc.Totals.GSTRate = *r.GSTRate
	}

	if r.SaleLines != nil {
		doc.SaleLines = doc.SaleLines[:0]
		for _, line := range r.SaleLines {
			if err := doc.AddSaleLine(line.toInput()); err != nil {
				return err
			}
		}
	}
	if r.ExchangeLines != nil {
		doc.ExchangeLines = doc.ExchangeLines[:0]
		for _, line := range r.ExchangeLines {
			if err := doc.AddExchangeLine(line.toInput()); err != nil {
				return err
			}
		}
	}

	return nil
}

// PaymentRequest records a payment against a confirmed bill.
type PaymentRequest struct {
	Amount    types.Money `json:"amount" binding:"required"`
	Method    string      `json:"method" binding:"required,oneof=cash card upi cheque"`
	Reference string      `json:"reference,omitempty"`
}

// --- Response DTOs ---

// BillTotalsResponse represents bill totals in API responses.
type BillTotalsResponse struct {
	Subtotal       types.Money `json:"subtotal"`
	Discount       types.Money `json:"discount"`
	GSTRate        types.Money `json:"gstRate"`
	TotalTax       types.Money `json:"totalTax"`
	CGSTAmount     types.Money `json:"cgstAmount"`
	SGSTAmount     types.Money `json:"sgstAmount"`
	ExchangeAmount types.Money `json:"exchangeAmount"`
	GrandTotal     types.Money `json:"grandTotal"`
	PaidAmount     types.Money `json:"paidAmount"`
	PendingAmount  types.Money `json:"pendingAmount"`
}

func fromBillTotals(t valuation.BillTotals) BillTotalsResponse {
	return BillTotalsResponse{
		Subtotal:       t.Subtotal,
		Discount:       t.Discount,
		GSTRate:        t.GSTRate,
		TotalTax:       t.TotalTax,
		CGSTAmount:     t.CGSTAmount,
		SGSTAmount:     t.SGSTAmount,
		ExchangeAmount: t.ExchangeAmount,
		GrandTotal:     t.GrandTotal,
		PaidAmount:     t.PaidAmount,
		PendingAmount:  t.PendingAmount,
	}
}

// SaleLineResponse represents a sale line in API responses.
type SaleLineResponse struct {
	LineID          string          `json:"lineId"`
	LineNo          int             `json:"lineNo"`
	ItemCode        string          `json:"itemCode"`
	Description     string          `json:"description,omitempty"`
	MetalType       string          `json:"metalType"`
	Fineness        int64           `json:"fineness"`
	Quantity        int64           `json:"quantity"`
	GrossWeight     types.Weight    `json:"grossWeight"`
	DeductionPct    decimal.Decimal `json:"deductionPct"`
	NetWeight       types.Weight    `json:"netWeight"`
	RatePerTenGrams types.Money     `json:"ratePerTenGrams"`
	MakingCharge    types.Money     `json:"makingCharge"`
	OtherCharge     types.Money     `json:"otherCharge"`
	Amount          types.Money     `json:"amount"`
}

// ExchangeLineResponse represents an exchange line in API responses.
type ExchangeLineResponse struct {
	LineID          string          `json:"lineId"`
	LineNo          int             `json:"lineNo"`
	MetalType       string          `json:"metalType"`
	Fineness        int64           `json:"fineness"`
	GrossWeight     types.Weight    `json:"grossWeight"`
	DeductionPct    decimal.Decimal `json:"deductionPct"`
	NetWeight       types.Weight    `json:"netWeight"`
	RatePerTenGrams types.Money     `json:"ratePerTenGrams"`
	Amount          types.Money     `json:"amount"`
}

// PaymentResponse represents a recorded payment.
type PaymentResponse struct {
	PaymentID string      `json:"paymentId"`
	Amount    types.Money `json:"amount"`
	Method    string      `json:"method"`
	Reference string      `json:"reference,omitempty"`
	PaidAt    time.Time   `json:"paidAt"`
}

// FromPayment converts a domain payment to response DTO.
func FromPayment(p bill.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID: p.PaymentID.String(),
		Amount:    p.Amount,
		Method:    p.Method,
		Reference: p.Reference,
		PaidAt:    p.PaidAt,
	}
}

// BillResponse represents a bill in API responses.
type BillResponse struct {
	ID             string                 `json:"id"`
	Number         string                 `json:"number"`
	Date           time.Time              `json:"date"`
	Status         string                 `json:"status"`
	ReconcileState string                 `json:"reconcileState,omitempty"`
	ReconcileError string                 `json:"reconcileError,omitempty"`
	CustomerID     string                 `json:"customerId"`
	Comment        string                 `json:"comment,omitempty"`
	Totals         BillTotalsResponse     `json:"totals"`
	SaleLines      []SaleLineResponse     `json:"saleLines,omitempty"`
	ExchangeLines  []ExchangeLineResponse `json:"exchangeLines,omitempty"`
	Payments       []PaymentResponse      `json:"payments,omitempty"`
	DeletionMark   bool                   `json:"deletionMark,omitempty"`
	Version        int                    `json:"version"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// FromBill converts domain entity to response DTO.
func FromBill(doc *bill.Bill) *BillResponse {
	resp := &BillResponse{
		ID:             doc.ID.String(),
		Number:         doc.Number,
		Date:           doc.Date,
		Status:         string(doc.Status),
		ReconcileState: string(doc.ReconcileState),
		ReconcileError: doc.ReconcileError,
		CustomerID:     doc.CustomerID.String(),
		Comment:        doc.Comment,
		Totals:         fromBillTotals(doc.Totals),
		DeletionMark:   doc.DeletionMark,
		Version:        doc.Version,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}

	resp.SaleLines = make([]SaleLineResponse, len(doc.SaleLines))
	for i, l := range doc.SaleLines {
		resp.SaleLines[i] = SaleLineResponse{
			LineID:          l.LineID.String(),
			LineNo:          l.LineNo,
			ItemCode:        l.ItemCode,
			Description:     l.Description,
			MetalType:       l.MetalType,
			Fineness:        l.Fineness,
			Quantity:        l.Quantity,
			GrossWeight:     l.GrossWeight,
			DeductionPct:    l.DeductionPct,
			NetWeight:       l.NetWeight,
			RatePerTenGrams: l.RatePerTenGrams,
			MakingCharge:    l.MakingCharge,
			OtherCharge:     l.OtherCharge,
			Amount:          l.Amount,
		}
	}

	resp.ExchangeLines = make([]ExchangeLineResponse, len(doc.ExchangeLines))
	for i, l := range doc.ExchangeLines {
		resp.ExchangeLines[i] = ExchangeLineResponse{
			LineID:          l.LineID.String(),
			LineNo:          l.LineNo,
			MetalType:       l.MetalType,
			Fineness:        l.Fineness,
			GrossWeight:     l.GrossWeight,
			DeductionPct:    l.DeductionPct,
			NetWeight:       l.NetWeight,
			RatePerTenGrams: l.RatePerTenGrams,
			Amount:          l.Amount,
		}
	}

	if len(doc.Payments) > 0 {
		resp.Payments = make([]PaymentResponse, len(doc.Payments))
		for i, p := range doc.Payments {
			resp.Payments[i] = FromPayment(p)
		}
	}

	return resp
}
