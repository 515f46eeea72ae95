package dto

import (
	"aurum/internal/domain/catalogs/counterparty"
)

// --- Request DTOs ---

// CreateCounterpartyRequest represents a request to create a counterparty.
type CreateCounterpartyRequest struct {
	Code     string  `json:"code,omitempty"`
	Name     string  `json:"name" binding:"required"`
	ParentID string  `json:"parentId,omitempty"`
	Type     string  `json:"type" binding:"required,oneof=customer supplier both"`
	GSTIN    *string `json:"gstin,omitempty"`
	PAN      *string `json:"pan,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Email    *string `json:"email,omitempty"`
	Address  *string `json:"address,omitempty"`
	Comment  *string `json:"comment,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateCounterpartyRequest) ToEntity() *counterparty.Counterparty {
	cp := counterparty.New(r.Code, r.Name, counterparty.Type(r.Type))
	cp.SetParent(r.ParentID)
	cp.GSTIN = r.GSTIN
	cp.PAN = r.PAN
	cp.Phone = r.Phone
	cp.Email = r.Email
	cp.Address = r.Address
	cp.Comment = r.Comment
	return cp
}

// UpdateCounterpartyRequest represents a request to update a counterparty.
type UpdateCounterpartyRequest struct {
	Name     *string `json:"name,omitempty"`
	ParentID *string `json:"parentId,omitempty"`
	Type     *string `json:"type,omitempty" binding:"omitempty,oneof=customer supplier both"`
	GSTIN    *string `json:"gstin,omitempty"`
	PAN      *string `json:"pan,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Email    *string `json:"email,omitempty"`
	Address  *string `json:"address,omitempty"`
	Comment  *string `json:"comment,omitempty"`
	Version  int     `json:"version" binding:"required"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateCounterpartyRequest) ApplyTo(cp *counterparty.Counterparty) {
	if r.Name != nil {
		cp.Name = *r.Name
	}
	if r.ParentID != nil {
		cp.SetParent(*r.ParentID)
	}
	if r.Type != nil {
		cp.Type = counterparty.Type(*r.Type)
	}
	if r.GSTIN != nil {
		cp.GSTIN = r.GSTIN
	}
	if r.PAN != nil {
		cp.PAN = r.PAN
	}
	if r.Phone != nil {
		cp.Phone = r.Phone
	}
	if r.Email != nil {
		cp.Email = r.Email
	}
	if r.Address != nil {
		cp.Address = r.Address
	}
	if r.Comment != nil {
		cp.Comment = r.Comment
	}
	cp.Version = r.Version
}

// --- Response DTOs ---

// CounterpartyResponse represents a counterparty in API responses.
type CounterpartyResponse struct {
	CatalogResponse
	Type    string  `json:"type"`
	GSTIN   *string `json:"gstin,omitempty"`
	PAN     *string `json:"pan,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

// FromCounterparty converts domain entity to response DTO.
func FromCounterparty(cp *counterparty.Counterparty) *CounterpartyResponse {
	return &CounterpartyResponse{
		CatalogResponse: FromCatalog(cp.Catalog),
		Type:            string(cp.Type),
		GSTIN:           cp.GSTIN,
		PAN:             cp.PAN,
		Phone:           cp.Phone,
		Email:           cp.Email,
		Address:         cp.Address,
		Comment:         cp.Comment,
	}
}
