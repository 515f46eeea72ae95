package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/domain/documents/purchase"
	"aurum/internal/domain/valuation"
)

// --- Request DTOs ---

// PurchaseLineRequest represents a purchase line in create/update
// requests. SellerPercentage is the negotiated payable fraction of the
// gross weight; ItemCode marks finished stock and requires a quantity.
type PurchaseLineRequest struct {
	Description      string          `json:"description,omitempty"`
	ItemCode         string          `json:"itemCode,omitempty"`
	Quantity         int64           `json:"quantity,omitempty"`
	MetalType        string          `json:"metalType" binding:"required"`
	PurityValue      decimal.Decimal `json:"purityValue" binding:"required"`
	GrossWeight      types.Weight    `json:"grossWeight" binding:"required"`
	SellerPercentage decimal.Decimal `json:"sellerPercentage" binding:"required"`
	RatePerTenGrams  types.Money     `json:"ratePerTenGrams" binding:"required"`
}

func (r PurchaseLineRequest) toInput() purchase.LineInput {
	return purchase.LineInput{
		Description:      r.Description,
		ItemCode:         r.ItemCode,
		Quantity:         r.Quantity,
		MetalType:        r.MetalType,
		PurityValue:      r.PurityValue,
		GrossWeight:      r.GrossWeight,
		SellerPercentage: r.SellerPercentage,
		RatePerTenGrams:  r.RatePerTenGrams,
	}
}

// CreatePurchaseInvoiceRequest represents a request to create a purchase invoice.
type CreatePurchaseInvoiceRequest struct {
	Number              string                `json:"number,omitempty"`
	Date                *time.Time            `json:"date,omitempty"`
	SupplierID          string                `json:"supplierId" binding:"required"`
	SupplierInvoiceNo   string                `json:"supplierInvoiceNo,omitempty"`
	SupplierInvoiceDate *time.Time            `json:"supplierInvoiceDate,omitempty"`
	Comment             string                `json:"comment,omitempty"`
	Discount            types.Money           `json:"discount,omitempty"`
	TransportCharge     types.Money           `json:"transportCharge,omitempty"`
	OtherCharge         types.Money           `json:"otherCharge,omitempty"`
	GSTRate             types.Money           `json:"gstRate,omitempty"`
	PaidAmount          types.Money           `json:"paidAmount,omitempty"`
	Lines               []PurchaseLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToEntity converts request to domain entity.
func (r *CreatePurchaseInvoiceRequest) ToEntity() (*purchase.PurchaseInvoice, error) {
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return nil, err
	}

	doc := purchase.NewPurchaseInvoice(supplierID)
	doc.Number = r.Number
	doc.SupplierInvoiceNo = r.SupplierInvoiceNo
	doc.SupplierInvoiceDate = r.SupplierInvoiceDate
	doc.Comment = r.Comment
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.Totals.Discount = r.Discount
	doc.Totals.TransportCharge = r.TransportCharge
	doc.Totals.OtherCharge = r.OtherCharge
	doc.Totals.GSTRate = r.GSTRate
	doc.Totals.PaidAmount = r.PaidAmount

	for _, line := range r.Lines {
		if err := doc.AddLine(line.toInput()); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// UpdatePurchaseInvoiceRequest represents a request to update a draft invoice.
type UpdatePurchaseInvoiceRequest struct {
	Date                *time.Time            `json:"date,omitempty"`
	SupplierID          *string               `json:"supplierId,omitempty"`
	SupplierInvoiceNo   *string               `json:"supplierInvoiceNo,omitempty"`
	SupplierInvoiceDate *time.Time            `json:"supplierInvoiceDate,omitempty"`
	Comment             *string               `json:"comment,omitempty"`
	Discount            *types.Money          `json:"discount,omitempty"`
	TransportCharge     *types.Money          `json:"transportCharge,omitempty"`
	OtherCharge         *types.Money          `json:"otherCharge,omitempty"`
	GSTRate             *types.Money          `json:"gstRate,omitempty"`
	PaidAmount          *types.Money          `json:"paidAmount,omitempty"`
	Lines               []PurchaseLineRequest `json:"lines,omitempty" binding:"omitempty,dive"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdatePurchaseInvoiceRequest) ApplyTo(doc *purchase.PurchaseInvoice) error {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.SupplierID != nil {
		supplierID, err := id.Parse(*r.SupplierID)
		if err != nil {
			return err
		}
		doc.SupplierID = supplierID
	}
	if r.SupplierInvoiceNo != nil {
		doc.SupplierInvoiceNo = *r.SupplierInvoiceNo
	}
	if r.SupplierInvoiceDate != nil {
		doc.SupplierInvoiceDate = r.SupplierInvoiceDate
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}
	if r.Discount != nil {
		doc.Totals.Discount = *r.Discount
	}
	if r.TransportCharge != nil {
		doc.Totals.TransportCharge = *r.TransportCharge
	}
	if r.OtherCharge != nil {
		doc.Totals.OtherCharge = *r.OtherCharge
	}
	if r.GSTRate != nil {
		doc.Totals.GSTRate = *r.GSTRate
	}
	if r.PaidAmount != nil {
		if err := doc.SetPaidAmount(*r.PaidAmount); err != nil {
			return err
		}
	}

	if r.Lines != nil {
		doc.Lines = doc.Lines[:0]
		for _, line := range r.Lines {
			if err := doc.AddLine(line.toInput()); err != nil {
				return err
			}
		}
	}

	return nil
}

// --- Response DTOs ---

// PurchaseInvoiceTotalsResponse represents invoice totals in API responses.
type PurchaseInvoiceTotalsResponse struct {
	Subtotal        types.Money `json:"subtotal"`
	Discount        types.Money `json:"discount"`
	TransportCharge types.Money `json:"transportCharge"`
	OtherCharge     types.Money `json:"otherCharge"`
	GSTRate         types.Money `json:"gstRate"`
	TotalTax        types.Money `json:"totalTax"`
	GrandTotal      types.Money `json:"grandTotal"`
	PaidAmount      types.Money `json:"paidAmount"`
	PendingAmount   types.Money `json:"pendingAmount"`
}

func fromPurchaseTotals(t valuation.PurchaseInvoiceTotals) PurchaseInvoiceTotalsResponse {
	return PurchaseInvoiceTotalsResponse{
		Subtotal:        t.Subtotal,
		Discount:        t.Discount,
		TransportCharge: t.TransportCharge,
		OtherCharge:     t.OtherCharge,
		GSTRate:         t.GSTRate,
		TotalTax:        t.TotalTax,
		GrandTotal:      t.GrandTotal,
		PaidAmount:      t.PaidAmount,
		PendingAmount:   t.PendingAmount,
	}
}

// PurchaseLineResponse represents a purchase line in API responses.
type PurchaseLineResponse struct {
	LineID           string          `json:"lineId"`
	LineNo           int             `json:"lineNo"`
	Description      string          `json:"description,omitempty"`
	ItemCode         string          `json:"itemCode,omitempty"`
	Quantity         int64           `json:"quantity,omitempty"`
	MetalType        string          `json:"metalType"`
	Fineness         int64           `json:"fineness"`
	GrossWeight      types.Weight    `json:"grossWeight"`
	SellerPercentage decimal.Decimal `json:"sellerPercentage"`
	NetWeight        types.Weight    `json:"netWeight"`
	RatePerTenGrams  types.Money     `json:"ratePerTenGrams"`
	Amount           types.Money     `json:"amount"`
}

// PurchaseInvoiceResponse represents a purchase invoice in API responses.
type PurchaseInvoiceResponse struct {
	ID                  string                        `json:"id"`
	Number              string                        `json:"number"`
	Date                time.Time                     `json:"date"`
	Status              string                        `json:"status"`
	ReconcileState      string                        `json:"reconcileState,omitempty"`
	ReconcileError      string                        `json:"reconcileError,omitempty"`
	SupplierID          string                        `json:"supplierId"`
	SupplierInvoiceNo   string                        `json:"supplierInvoiceNo,omitempty"`
	SupplierInvoiceDate *time.Time                    `json:"supplierInvoiceDate,omitempty"`
	Comment             string                        `json:"comment,omitempty"`
	Totals              PurchaseInvoiceTotalsResponse `json:"totals"`
	Lines               []PurchaseLineResponse        `json:"lines,omitempty"`
	DeletionMark        bool                          `json:"deletionMark,omitempty"`
	Version             int                           `json:"version"`
	CreatedAt           time.Time                     `json:"createdAt"`
	UpdatedAt           time.Time                     `json:"updatedAt"`
}

// FromPurchaseInvoice converts domain entity to response DTO.
func FromPurchaseInvoice(doc *purchase.PurchaseInvoice) *PurchaseInvoiceResponse {
	resp := &PurchaseInvoiceResponse{
		ID:                  doc.ID.String(),
		Number:              doc.Number,
		Date:                doc.Date,
		Status:              string(doc.Status),
		ReconcileState:      string(doc.ReconcileState),
		ReconcileError:      doc.ReconcileError,
		SupplierID:          doc.SupplierID.String(),
		SupplierInvoiceNo:   doc.SupplierInvoiceNo,
		SupplierInvoiceDate: doc.SupplierInvoiceDate,
		Comment:             doc.Comment,
		Totals:              fromPurchaseTotals(doc.Totals),
		DeletionMark:        doc.DeletionMark,
		Version:             doc.Version,
		CreatedAt:           doc.CreatedAt,
		UpdatedAt:           doc.UpdatedAt,
	}

	resp.Lines = make([]PurchaseLineResponse, len(doc.Lines))
	for i, l := range doc.Lines {
		resp.Lines[i] = PurchaseLineResponse{
			LineID:           l.LineID.String(),
			LineNo:           l.LineNo,
			Description:      l.Description,
			ItemCode:         l.ItemCode,
			Quantity:         l.Quantity,
			MetalType:        l.MetalType,
			Fineness:         l.Fineness,
			GrossWeight:      l.GrossWeight,
			SellerPercentage: l.SellerPercentage,
			NetWeight:        l.NetWeight,
			RatePerTenGrams:  l.RatePerTenGrams,
			Amount:           l.Amount,
		}
	}

	return resp
}
